package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/joho/godotenv"

	"github.com/JulianWaksmann/snowflake-project/internal/warehouse"
)

// Trigger modes select the payload the function is started with.
const (
	TriggerS3  = "s3"
	TriggerSQS = "sqs"
)

// Config is the process configuration read from the environment.
type Config struct {
	Warehouse     warehouse.Credentials
	PasswordParam string

	InboxPrefix   string
	HistoryPrefix string
	Stage         string
	FileFormat    string

	TriggerMode        string
	SessionMaxAttempts int
	Debug              bool
}

// Load reads the configuration. A .env file in the working directory is applied first
// when present; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Warehouse: warehouse.Credentials{
			User:      os.Getenv("SNOWFLAKE_USER"),
			Password:  os.Getenv("SNOWFLAKE_PASSWORD"),
			Account:   os.Getenv("SNOWFLAKE_ACCOUNT"),
			Warehouse: os.Getenv("SNOWFLAKE_WAREHOUSE"),
			Database:  os.Getenv("SNOWFLAKE_DATABASE"),
			Role:      os.Getenv("SNOWFLAKE_ROLE"),
		},
		PasswordParam: os.Getenv("SNOWFLAKE_PASSWORD_PARAM"),
		InboxPrefix:   getenv("INBOX_PREFIX", "inbox/"),
		HistoryPrefix: getenv("HISTORY_PREFIX", "history/"),
		Stage:         getenv("INBOX_STAGE", "RAW.INBOX_STAGE"),
		FileFormat:    getenv("FILE_FORMAT", "RAW.CSV_FORMAT"),
		TriggerMode:   getenv("TRIGGER_MODE", TriggerS3),
		Debug:         debug(),
	}

	attempts, err := strconv.Atoi(getenv("SESSION_MAX_ATTEMPTS", "3"))
	if err != nil || attempts < 1 {
		return nil, fmt.Errorf("SESSION_MAX_ATTEMPTS must be a positive integer, got %q", os.Getenv("SESSION_MAX_ATTEMPTS"))
	}
	cfg.SessionMaxAttempts = attempts

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	required := []struct{ name, value string }{
		{"SNOWFLAKE_USER", c.Warehouse.User},
		{"SNOWFLAKE_ACCOUNT", c.Warehouse.Account},
		{"SNOWFLAKE_WAREHOUSE", c.Warehouse.Warehouse},
		{"SNOWFLAKE_DATABASE", c.Warehouse.Database},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s undefined", r.name)
		}
	}
	if c.Warehouse.Password == "" && c.PasswordParam == "" {
		return errors.New("one of SNOWFLAKE_PASSWORD or SNOWFLAKE_PASSWORD_PARAM is required")
	}
	if c.InboxPrefix == "" || c.InboxPrefix[len(c.InboxPrefix)-1] != '/' {
		return fmt.Errorf("INBOX_PREFIX must end with '/', got %q", c.InboxPrefix)
	}
	if c.TriggerMode != TriggerS3 && c.TriggerMode != TriggerSQS {
		return fmt.Errorf("unknown TRIGGER_MODE %q", c.TriggerMode)
	}
	return nil
}

// ResolvePassword fetches the warehouse password from SSM when it was configured by
// parameter name. An inline password is left untouched.
func (c *Config) ResolvePassword(ctx context.Context, svc ssmiface.SSMAPI) error {
	if c.Warehouse.Password != "" {
		return nil
	}
	rsp, err := svc.GetParameterWithContext(ctx, &ssm.GetParameterInput{
		Name:           aws.String(c.PasswordParam),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("fetch %s: %w", c.PasswordParam, err)
	}
	if rsp.Parameter == nil || aws.StringValue(rsp.Parameter.Value) == "" {
		return fmt.Errorf("parameter %s has no value", c.PasswordParam)
	}
	c.Warehouse.Password = aws.StringValue(rsp.Parameter.Value)
	return nil
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func debug() bool {
	if os.Getenv("AWS_SAM_LOCAL") == "true" {
		return true
	}
	return os.Getenv("DEBUG") != "" || os.Getenv("debug") != ""
}
