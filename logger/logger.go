// Package logger provides centralized logging for the application.
// File: logger/logger.go
package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// ------------------- global loggers -------------------

// four logger levels accessible throughout the application
var (
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger
	Debug *log.Logger
)

// ------------------- logger initialization -------------------

// InitLogger creates or reinitializes the logging system. It:
// - Ensures the log directory (LOG_DIR, default ./logs) exists.
// - Creates a timestamped log file there.
// - Writes logs to both the file and stdout.
// - Falls back to stdout-only if the log file cannot be created, so a
//   read-only filesystem never prevents the service from starting.
func InitLogger() error {
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "./logs"
	}

	var out io.Writer = os.Stdout
	if err := os.MkdirAll(logDir, 0700); err == nil {
		logFileName := filepath.Join(logDir, time.Now().Format("2006-01-02_15-04-05")+".log")
		file, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec
		if err == nil {
			out = io.MultiWriter(os.Stdout, file)
		}
	}

	Info = log.New(out, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	Warn = log.New(out, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	Error = log.New(out, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	Debug = log.New(out, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	return nil
}

// SetLogLevel adjusts the Debug logger's output depending on environment.
// Production discards debug output entirely; every other environment keeps
// it.
func SetLogLevel(env string) {
	if env == "production" {
		Debug.SetOutput(io.Discard)
	}
}

// init initializes the loggers at package load time so every package can
// use them without explicit setup.
func init() {
	if err := InitLogger(); err != nil {
		log.Fatalf("Failed to initialise custom logger: %v", err)
	}
}
