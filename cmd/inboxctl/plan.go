package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JulianWaksmann/snowflake-project/internal/dataloader"
)

type planOptions struct {
	stage       string
	fileFormat  string
	inboxPrefix string
	sample      string
	skipHeader  bool
	limit       int
}

func newPlanCmd() *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan KEY...",
		Short: "Show classification and load statement for object keys without side effects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statements, err := dataloader.NewStatementBuilder(opts.stage, opts.fileFormat)
			if err != nil {
				return err
			}
			dl := &dataloader.DataLoader{
				Statements:  statements,
				InboxPrefix: opts.inboxPrefix,
				Now:         func() time.Time { return time.Now().UTC() },
			}
			out := cmd.OutOrStdout()
			if opts.sample != "" && len(args) != 1 {
				return errors.New("--sample needs exactly one KEY")
			}
			for _, key := range args {
				if !dl.Eligible(key) {
					fmt.Fprintf(out, "%s\tskipped (not under %s)\n", key, opts.inboxPrefix)
					continue
				}
				file, stmt, err := dl.Plan(key)
				switch {
				case err != nil:
					fmt.Fprintf(out, "%s\terror: %v\n", key, err)
				case file.Type == dataloader.Unknown:
					fmt.Fprintf(out, "%s\tskipped (unknown file type)\n", key)
				default:
					fmt.Fprintf(out, "%s\t%s\tbatch_date=%s\n%s\n", key, file.Type, file.BatchDate.Format("2006-01-02"), stmt.Text)
					if opts.sample != "" {
						if err := previewSample(out, file, dl.StagedPath(key), opts); err != nil {
							return err
						}
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.stage, "stage", "RAW.INBOX_STAGE", "stage the inbox prefix is mounted as")
	cmd.Flags().StringVar(&opts.fileFormat, "file-format", "RAW.CSV_FORMAT", "named file format for loads")
	cmd.Flags().StringVar(&opts.inboxPrefix, "inbox-prefix", "inbox/", "key prefix of eligible objects")
	cmd.Flags().StringVar(&opts.sample, "sample", "", "local copy of the file; prints how its rows map onto target columns")
	cmd.Flags().BoolVar(&opts.skipHeader, "skip-header", true, "treat the first sample line as a header")
	cmd.Flags().IntVar(&opts.limit, "limit", 10, "rows to preview, 0 for all")
	return cmd
}

func previewSample(out io.Writer, file dataloader.ClassifiedFile, stagedPath string, opts *planOptions) error {
	f, err := os.Open(opts.sample)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, rejected, err := dataloader.Preview(file, stagedPath, f, opts.skipHeader, opts.limit)
	if err != nil {
		return fmt.Errorf("preview %s: %w", opts.sample, err)
	}
	fmt.Fprintln(out, strings.Join(dataloader.Columns(file.Type), "\t"))
	for _, row := range rows {
		values := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				values[i] = "NULL"
				continue
			}
			values[i] = *v
		}
		fmt.Fprintln(out, strings.Join(values, "\t"))
	}
	if rejected > 0 {
		fmt.Fprintf(out, "rejected=%d\n", rejected)
	}
	return nil
}
