package config

import (
	"fmt"
	"io"
	"log"
	"os"
)

// SetupLogging sends the standard logger to stdout and, when path is set, to
// that file too. The returned func closes the file.
func SetupLogging(path string) (func(), error) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if path == "" {
		log.SetOutput(os.Stdout)
		return func() {}, nil
	}

	logFile, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	return func() {
		log.SetOutput(os.Stdout)
		logFile.Close()
	}, nil
}
