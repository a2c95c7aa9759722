/*
Package logging configures the process-wide structured logger. Every
package logs through charmbracelet/log's global logger; this package only
decides where that output goes and how verbose it is.
*/
package logging

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// Setup applies the configured level and, when a path is given, redirects
// output to a file. The returned closer flushes and releases the file.
func Setup(level string, filePath string) (func(), error) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
	log.SetReportTimestamp(true)

	if filePath == "" {
		return func() {}, nil
	}

	fh, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}

	log.SetOutput(fh)
	log.Info("logging to file", "path", filePath)

	return func() { fh.Close() }, nil
}
