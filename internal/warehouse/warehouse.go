package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	sf "github.com/snowflakedb/gosnowflake"

	"github.com/JulianWaksmann/snowflake-project/internal/retry"
)

// Schema is the raw-ingest schema every session starts in.
const Schema = "RAW"

// Credentials identify the Snowflake account and compute used for loads.
type Credentials struct {
	User      string
	Password  string
	Account   string
	Warehouse string
	Database  string
	Role      string
}

// DSN renders the gosnowflake connection string.
func DSN(c Credentials) (string, error) {
	return sf.DSN(&sf.Config{
		Account:   c.Account,
		User:      c.User,
		Password:  c.Password,
		Warehouse: c.Warehouse,
		Database:  c.Database,
		Schema:    Schema,
		Role:      c.Role,
	})
}

// Open returns a lazily connecting handle. Batches run on a single session, so the
// pool is kept to one connection.
func Open(c Credentials) (*sql.DB, error) {
	dsn, err := DSN(c)
	if err != nil {
		return nil, fmt.Errorf("build snowflake dsn: %w", err)
	}
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// Connector hands out one session per batch, retrying transient failures.
type Connector struct {
	DB      *sql.DB
	Backoff *retry.Backoff
	Logger  log.Logger
}

// Connect opens and pings a dedicated session.
func (c *Connector) Connect(ctx context.Context) (*sql.Conn, error) {
	var conn *sql.Conn
	start := time.Now()
	err := retry.Do(ctx, c.Backoff,
		func(attempt int, err error, delay time.Duration) {
			level.Warn(c.Logger).Log("msg", "warehouse session not ready, retrying",
				"attempt", attempt,
				"delay", delay,
				"err", err)
		},
		func(ctx context.Context) error {
			cn, err := c.DB.Conn(ctx)
			if err != nil {
				return err
			}
			if err := cn.PingContext(ctx); err != nil {
				cn.Close()
				return err
			}
			conn = cn
			return nil
		})
	if err != nil {
		return nil, err
	}
	level.Debug(c.Logger).Log("msg", "warehouse session opened", "elapsed_time", time.Since(start))
	return conn, nil
}

// ErrorFields returns log key/values describing a Snowflake error wrapped in err.
func ErrorFields(err error) []interface{} {
	var sfErr *sf.SnowflakeError
	if !errors.As(err, &sfErr) {
		return nil
	}
	return []interface{}{
		"sf_code", sfErr.Number,
		"sql_state", sfErr.SQLState,
		"query_id", sfErr.QueryID,
	}
}
