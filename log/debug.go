// Package log provides apiary's stderr loggers and an optional debug
// log file. Enable verbose debug logging by setting APIARY_DEBUG to any
// non-empty value.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// ErrorLog, WarningLog, and InfoLog are the three severities apiary
// writes to stderr (spec.md §6: "A debug-log filter variable ...
// controls verbosity to stderr; all other configuration is via the
// config file"). They are process-wide, set up once by Initialize.
var (
	ErrorLog   *log.Logger
	WarningLog *log.Logger
	InfoLog    *log.Logger
)

// Debug mode configuration.
var (
	DebugEnabled bool
	DebugLog     *log.Logger
	debugLogFile *os.File
)

var debugLogFileName = filepath.Join(os.TempDir(), "apiary-debug.log")

// Initialize sets up the three stderr loggers. Call once at process
// start, before any other apiary package logs anything.
func Initialize() {
	ErrorLog = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime)
	WarningLog = log.New(os.Stderr, "WARN: ", log.Ldate|log.Ltime)
	InfoLog = log.New(os.Stderr, "INFO: ", log.Ldate|log.Ltime)
}

// Close releases resources held by the loggers (currently only the
// debug log file, via CloseDebug — kept as a separate call since debug
// logging has its own lifecycle).
func Close() {
	CloseDebug()
}

// InitDebug enables the debug log file when APIARY_DEBUG is set to any
// non-empty value; the value is echoed as a tag in each line's prefix.
// Call this after Initialize() in main.
func InitDebug() {
	tag := os.Getenv("APIARY_DEBUG")
	if tag == "" {
		DebugLog = log.New(io.Discard, "", 0)
		return
	}

	DebugEnabled = true

	f, err := os.OpenFile(debugLogFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		if ErrorLog != nil {
			ErrorLog.Printf("could not open debug log file: %s", err)
		}
		DebugLog = log.New(io.Discard, "", 0)
		return
	}

	DebugLog = log.New(f, "DEBUG["+tag+"]:", log.Ldate|log.Ltime|log.Lmicroseconds)
	debugLogFile = f

	DebugLog.Println("Debug mode enabled")
	DebugLog.Printf("Debug log: %s", debugLogFileName)
}

// CloseDebug closes the debug log file, if open.
func CloseDebug() {
	if debugLogFile != nil {
		_ = debugLogFile.Close()
		fmt.Println("wrote debug logs to " + debugLogFileName)
		debugLogFile = nil
	}
}

// Debug logs a debug message if debug mode is enabled.
func Debug(format string, v ...interface{}) {
	if DebugEnabled && DebugLog != nil {
		DebugLog.Printf(format, v...)
	}
}
