package dataloader

import (
	"io"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// NewLogger builds the logfmt logger shared by the function and the CLI. Debug lines,
// which include generated statements, are only emitted when verbose is set.
func NewLogger(w io.Writer, verbose bool) log.Logger {
	logger := log.With(
		log.NewLogfmtLogger(log.NewSyncWriter(w)),
		"ts", log.DefaultTimestampUTC,
	)
	if verbose {
		logger = level.NewFilter(logger, level.AllowAll())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	return logger
}
