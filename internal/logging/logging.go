// Package logging builds the logrus logger shared by the CLI and the agent.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Debug  bool
	Quiet  bool
	Output io.Writer
}

func New(opts Options) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: false,
		FullTimestamp:    true,
	})
	logger.SetLevel(logrus.InfoLevel)
	if opts.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	switch {
	case opts.Quiet:
		logger.SetOutput(io.Discard)
	case opts.Output != nil:
		logger.SetOutput(opts.Output)
	default:
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// Discard returns a logger that drops everything, for callers that did not supply one.
func Discard() *logrus.Logger {
	return New(Options{Quiet: true})
}
