package dataloader

import (
	"encoding/json"
	"fmt"
)

// ObjectRecord identifies one newly created object delivered by the trigger.
type ObjectRecord struct {
	Bucket string
	Key    string
	// Region and MessageID are carried for error reporting only.
	Region    string
	MessageID string
}

func (r ObjectRecord) String() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.Key)
}

// RecordStatus is the terminal state of one record in a batch.
type RecordStatus int

const (
	// Skipped records were ineligible or of an unknown type. They are neither
	// successes nor failures.
	Skipped RecordStatus = iota
	Loaded
	Failed
)

func (s RecordStatus) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "skipped"
	}
}

// RecordOutcome is the per-record result of a batch run.
type RecordOutcome struct {
	Record ObjectRecord
	Status RecordStatus
	Type   FileType
	// ArchiveKey is set once the object has been moved to history.
	ArchiveKey string
	Err        error
}

// BatchOutcome summarizes one invocation.
type BatchOutcome struct {
	Processed int
	Errors    []string
	Records   []RecordOutcome
}

// Failed reports whether any record failed.
func (o BatchOutcome) Failed() bool {
	return len(o.Errors) > 0
}

// Err returns the aggregate failure for the batch, or nil when every record succeeded
// or was skipped.
func (o BatchOutcome) Err() error {
	if !o.Failed() {
		return nil
	}
	return &BatchError{Messages: append([]string(nil), o.Errors...)}
}

// BatchError is the aggregate failure raised when at least one record failed.
type BatchError struct {
	Messages []string
}

func (e *BatchError) Error() string {
	rendered, err := json.Marshal(e.Messages)
	if err != nil {
		rendered = []byte(fmt.Sprint(e.Messages))
	}
	return fmt.Sprintf("batch processed with %d errors: %s", len(e.Messages), rendered)
}

// errorAggregator collects per-record failures in arrival order.
type errorAggregator struct {
	messages []string
}

func (a *errorAggregator) add(record ObjectRecord, err error) string {
	region := record.Region
	if region == "" {
		region = "unknown"
	}
	msg := fmt.Sprintf("error processing record %s (region %s): %v", record, region, err)
	a.messages = append(a.messages, msg)
	return msg
}

func (a *errorAggregator) count() int {
	return len(a.messages)
}
