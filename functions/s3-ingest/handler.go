package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/JulianWaksmann/snowflake-project/internal/dataloader"
)

// Response is returned when every record of a direct S3 batch succeeded or was skipped.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type batchRunner interface {
	Run(ctx context.Context, batch []dataloader.ObjectRecord) (dataloader.BatchOutcome, error)
}

type handler struct {
	dl     batchRunner
	logger log.Logger
}

// handleS3 serves direct bucket notifications. Any failed record fails the whole
// invocation, and a redelivery replays records that were already loaded and archived.
func (h *handler) handleS3(ctx context.Context, event events.S3Event) (*Response, error) {
	outcome, err := h.dl.Run(ctx, dataloader.RecordsFromS3(event.Records, ""))
	if err != nil {
		return nil, err
	}
	if err := outcome.Err(); err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: 200,
		Body:       fmt.Sprintf("Batch processed: %d files.", outcome.Processed),
	}, nil
}

// handleSQS serves S3 notifications delivered through a queue. Only messages with a
// failed record are reported back, so loaded files are never redelivered.
func (h *handler) handleSQS(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var (
		rsp     events.SQSEventResponse
		records []dataloader.ObjectRecord
	)
	for _, msg := range event.Records {
		var notification events.S3Event
		if err := json.Unmarshal([]byte(msg.Body), &notification); err != nil {
			level.Error(h.logger).Log("msg", "undecodable queue message", "message_id", msg.MessageId, "err", err)
			rsp.BatchItemFailures = append(rsp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: msg.MessageId})
			continue
		}
		records = append(records, dataloader.RecordsFromS3(notification.Records, msg.MessageId)...)
	}

	outcome, err := h.dl.Run(ctx, records)
	if err != nil {
		return events.SQSEventResponse{}, err
	}

	reported := make(map[string]bool)
	for _, r := range outcome.Records {
		id := r.Record.MessageID
		if r.Status != dataloader.Failed || reported[id] {
			continue
		}
		reported[id] = true
		rsp.BatchItemFailures = append(rsp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: id})
	}
	if len(rsp.BatchItemFailures) > 0 {
		level.Warn(h.logger).Log("msg", "returning partial batch failure", "failed_messages", len(rsp.BatchItemFailures))
	}
	return rsp, nil
}
