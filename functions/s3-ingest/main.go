//go:build !test

package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/go-kit/kit/log"

	"github.com/JulianWaksmann/snowflake-project/internal/config"
	"github.com/JulianWaksmann/snowflake-project/internal/dataloader"
	"github.com/JulianWaksmann/snowflake-project/internal/warehouse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var (
		sess   = session.Must(session.NewSession())
		s3Svc  = s3.New(sess)
		logger = dataloader.NewLogger(os.Stdout, cfg.Debug)
	)

	if err := cfg.ResolvePassword(context.Background(), ssm.New(sess)); err != nil {
		panic(err)
	}

	// Clients live for the whole process and are shared by every invocation.
	db, err := warehouse.Open(cfg.Warehouse)
	if err != nil {
		panic(err)
	}

	newHandler := func(ctx context.Context) (*handler, error) {
		requestLogger := logger
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			requestLogger = log.With(logger, "request_id", lc.AwsRequestID)
		}
		dl, err := dataloader.New(cfg, db, s3Svc, requestLogger)
		if err != nil {
			return nil, err
		}
		return &handler{dl: dl, logger: requestLogger}, nil
	}

	if cfg.TriggerMode == config.TriggerSQS {
		lambda.Start(func(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
			h, err := newHandler(ctx)
			if err != nil {
				return events.SQSEventResponse{}, err
			}
			return h.handleSQS(ctx, event)
		})
		return
	}
	lambda.Start(func(ctx context.Context, event events.S3Event) (*Response, error) {
		h, err := newHandler(ctx)
		if err != nil {
			return nil, err
		}
		return h.handleS3(ctx, event)
	})
}
