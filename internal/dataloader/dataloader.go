package dataloader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/JulianWaksmann/snowflake-project/internal/config"
	"github.com/JulianWaksmann/snowflake-project/internal/retry"
	"github.com/JulianWaksmann/snowflake-project/internal/warehouse"
)

// Connector opens the single warehouse session used for a whole batch.
type Connector interface {
	Connect(ctx context.Context) (*sql.Conn, error)
}

// SessionError is returned by Run when the warehouse session cannot be opened. No
// record has been processed when it is returned.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("critical connection error: %v", e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// DataLoader takes care of loading a batch of inbox files into the warehouse.
type DataLoader struct {
	Connector   Connector
	Statements  *StatementBuilder
	Archiver    *Archiver
	Logger      log.Logger
	InboxPrefix string
	Now         func() time.Time
}

// New wires a DataLoader from configuration around process-wide clients. db and s3Svc
// are owned by the caller and outlive the loader.
func New(cfg *config.Config, db *sql.DB, s3Svc s3iface.S3API, logger log.Logger) (*DataLoader, error) {
	statements, err := NewStatementBuilder(cfg.Stage, cfg.FileFormat)
	if err != nil {
		return nil, err
	}
	now := func() time.Time { return time.Now().UTC() }
	return &DataLoader{
		Connector: &warehouse.Connector{
			DB:      db,
			Backoff: retry.NewBackoff(cfg.SessionMaxAttempts),
			Logger:  logger,
		},
		Statements: statements,
		Archiver: &Archiver{
			S3Svc:         s3Svc,
			Logger:        logger,
			HistoryPrefix: cfg.HistoryPrefix,
			Now:           now,
		},
		Logger:      logger,
		InboxPrefix: cfg.InboxPrefix,
		Now:         now,
	}, nil
}

// Run processes the batch in order on one session. Per-record failures are collected
// in the outcome; the returned error is only set when the session could not be opened.
func (d *DataLoader) Run(ctx context.Context, batch []ObjectRecord) (BatchOutcome, error) {
	conn, err := d.Connector.Connect(ctx)
	if err != nil {
		level.Error(d.Logger).Log("msg", "critical connection error", "err", err)
		return BatchOutcome{}, &SessionError{Err: err}
	}
	defer func() {
		if err := conn.Close(); err != nil {
			level.Warn(d.Logger).Log("msg", "closing warehouse session", "err", err)
		}
	}()

	var (
		outcome BatchOutcome
		errs    errorAggregator
	)
	for _, record := range batch {
		result := d.processRecord(ctx, conn, record)
		switch result.Status {
		case Loaded:
			outcome.Processed++
		case Failed:
			msg := errs.add(record, result.Err)
			level.Error(d.Logger).Log(append([]interface{}{"msg", msg}, warehouse.ErrorFields(result.Err)...)...)
		}
		outcome.Records = append(outcome.Records, result)
	}
	outcome.Errors = errs.messages

	level.Info(d.Logger).Log("msg", "batch complete", "processed", outcome.Processed, "errors", errs.count())
	return outcome, nil
}

// Eligible reports whether key is a file under the inbox prefix.
func (d *DataLoader) Eligible(key string) bool {
	return strings.HasPrefix(key, d.InboxPrefix) && !strings.HasSuffix(key, "/")
}

// Plan classifies a key and renders its statement without touching the warehouse or
// the bucket. An Unknown file yields an empty statement.
func (d *DataLoader) Plan(key string) (ClassifiedFile, LoadStatement, error) {
	file, err := Classify(key, d.Now())
	if err != nil || file.Type == Unknown {
		return file, LoadStatement{}, err
	}
	stmt, err := d.Statements.Build(file, d.StagedPath(key))
	return file, stmt, err
}

// StagedPath is the key relative to the inbox prefix, the name the stage and
// METADATA$FILENAME know the file by.
func (d *DataLoader) StagedPath(key string) string {
	return strings.TrimPrefix(key, d.InboxPrefix)
}

func (d *DataLoader) processRecord(ctx context.Context, conn *sql.Conn, record ObjectRecord) RecordOutcome {
	result := RecordOutcome{Record: record, Status: Skipped}
	if !d.Eligible(record.Key) {
		level.Info(d.Logger).Log("msg", "skipping key", "bucket", record.Bucket, "key", record.Key)
		return result
	}

	file, stmt, err := d.Plan(record.Key)
	if err != nil {
		return failed(result, err)
	}
	result.Type = file.Type
	if file.Type == Unknown {
		level.Warn(d.Logger).Log("msg", "unknown file type", "bucket", record.Bucket, "key", record.Key)
		return result
	}

	if err := d.execute(ctx, conn, stmt, file, record); err != nil {
		return failed(result, err)
	}

	archiveKey, err := d.Archiver.Archive(ctx, record.Bucket, record.Key, file.Type)
	if err != nil {
		return failed(result, err)
	}
	result.ArchiveKey = archiveKey
	result.Status = Loaded
	return result
}

func (d *DataLoader) execute(ctx context.Context, conn *sql.Conn, stmt LoadStatement, file ClassifiedFile, record ObjectRecord) error {
	start := time.Now()
	level.Info(d.Logger).Log("msg", "attempting copy command",
		"table_name", stmt.Table,
		"key", record.Key,
		"file_type", file.Type,
		"batch_date", file.BatchDate.Format("2006-01-02"))
	level.Debug(d.Logger).Log("msg", "built copy into query", "generated_query", stmt.Text)

	if _, err := conn.ExecContext(ctx, stmt.Text); err != nil {
		level.Error(d.Logger).Log("msg", "copy command failure",
			"elapsed_time", time.Since(start),
			"table_name", stmt.Table,
			"key", record.Key,
			"err", err)
		return fmt.Errorf("load into %s: %w", stmt.Table, err)
	}
	level.Info(d.Logger).Log("msg", "copy command complete",
		"elapsed_time", time.Since(start),
		"table_name", stmt.Table,
		"key", record.Key)
	return nil
}

func failed(result RecordOutcome, err error) RecordOutcome {
	result.Status = Failed
	result.Err = err
	return result
}
