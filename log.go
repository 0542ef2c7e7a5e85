package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

func setupLog() (func() error, error) {
	// Log to file, if set
	if logFile := os.Getenv("AITUTOR_LOGFILE"); logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("error setting up log: %w", err)
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		if lvl, err := log.ParseLevel(os.Getenv("AITUTOR_LOGLEVEL")); err == nil {
			log.SetLevel(lvl)
		}
		log.SetReportTimestamp(true)
		log.SetTimeFormat(time.RFC3339)
		return f.Close, nil
	}

	log.SetOutput(io.Discard)
	return func() error { return nil }, nil
}
