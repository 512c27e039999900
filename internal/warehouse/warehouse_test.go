package warehouse

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-kit/kit/log"
	sf "github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulianWaksmann/snowflake-project/internal/retry"
)

func TestDSN(t *testing.T) {
	dsn, err := DSN(Credentials{
		User:      "loader",
		Password:  "s3cr3t",
		Account:   "xy12345.us-east-1",
		Warehouse: "LOAD_WH",
		Database:  "RETAIL",
	})
	require.NoError(t, err)
	assert.Contains(t, dsn, "loader:s3cr3t@")
	assert.Contains(t, dsn, "schema=RAW")
	assert.Contains(t, dsn, "warehouse=LOAD_WH")
	assert.Contains(t, dsn, "database=RETAIL")
}

func TestDSNRequiresAccount(t *testing.T) {
	_, err := DSN(Credentials{User: "loader", Password: "s3cr3t"})
	assert.Error(t, err)
}

func newConnector(t *testing.T, attempts int) (*Connector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Connector{
		DB:      db,
		Backoff: retry.NewBackoff(attempts, retry.WithInitialDelay(time.Millisecond), retry.WithJitter(0)),
		Logger:  log.NewNopLogger(),
	}, mock
}

func TestConnectPingsSession(t *testing.T) {
	c, mock := newConnector(t, 3)
	mock.ExpectPing()

	conn, err := c.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectRetriesTransientPing(t *testing.T) {
	c, mock := newConnector(t, 3)
	mock.ExpectPing().WillReturnError(fmt.Errorf("dial tcp: connection refused"))
	mock.ExpectPing()

	conn, err := c.Connect(context.Background())
	require.NoError(t, err)
	conn.Close()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectFailsOnPermanentError(t *testing.T) {
	c, mock := newConnector(t, 3)
	authErr := &sf.SnowflakeError{Number: 390100, Message: "Incorrect username or password was specified."}
	mock.ExpectPing().WillReturnError(authErr)

	_, err := c.Connect(context.Background())
	assert.ErrorIs(t, err, authErr)
	assert.Equal(t, 0, c.DB.Stats().InUse)
}

func TestErrorFields(t *testing.T) {
	err := fmt.Errorf("load into RAW.SALES: %w", &sf.SnowflakeError{
		Number:   100080,
		SQLState: "22000",
		QueryID:  "01b2c3d4-0000-1111-0000-000000000001",
		Message:  "Number of columns in file does not match",
	})
	assert.Equal(t, []interface{}{
		"sf_code", 100080,
		"sql_state", "22000",
		"query_id", "01b2c3d4-0000-1111-0000-000000000001",
	}, ErrorFields(err))

	assert.Nil(t, ErrorFields(errors.New("plain")))
	assert.Nil(t, ErrorFields(driver.ErrBadConn))
}
