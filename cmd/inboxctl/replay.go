package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/go-kit/kit/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JulianWaksmann/snowflake-project/internal/config"
	"github.com/JulianWaksmann/snowflake-project/internal/dataloader"
	"github.com/JulianWaksmann/snowflake-project/internal/warehouse"
)

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay EVENT_FILE",
		Short: "Run a saved S3 notification event through the pipeline",
		Long: `replay loads and archives every record of a saved S3 notification event using
the configuration from the environment (or .env). Records already moved to history
fail on archive, their load statement is still executed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args[0], cmd)
		},
	}
}

func runReplay(ctx context.Context, eventFile string, cmd *cobra.Command) error {
	raw, err := os.ReadFile(eventFile)
	if err != nil {
		return err
	}
	var event events.S3Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("decode %s: %w", eventFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := log.With(dataloader.NewLogger(os.Stderr, cfg.Debug), "invocation_id", uuid.NewString())

	sess, err := session.NewSession()
	if err != nil {
		return err
	}
	if err := cfg.ResolvePassword(ctx, ssm.New(sess)); err != nil {
		return err
	}
	db, err := warehouse.Open(cfg.Warehouse)
	if err != nil {
		return err
	}
	defer db.Close()

	dl, err := dataloader.New(cfg, db, s3.New(sess), logger)
	if err != nil {
		return err
	}

	outcome, err := dl.Run(ctx, dataloader.RecordsFromS3(event.Records, ""))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range outcome.Records {
		fmt.Fprintf(out, "%s\t%s\t%s\n", r.Record, r.Status, r.ArchiveKey)
	}
	fmt.Fprintf(out, "processed=%d errors=%d\n", outcome.Processed, len(outcome.Errors))
	return outcome.Err()
}
