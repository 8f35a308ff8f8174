package log

import (
	"os"
	"testing"
)

func TestDebugDisabledByDefault(t *testing.T) {
	DebugEnabled = false
	DebugLog = nil

	os.Unsetenv("APIARY_DEBUG")
	InitDebug()

	if DebugEnabled {
		t.Error("Debug should be disabled by default")
	}
}

func TestDebugEnabledWithEnvVar(t *testing.T) {
	DebugEnabled = false
	DebugLog = nil

	os.Setenv("APIARY_DEBUG", "1")
	defer os.Unsetenv("APIARY_DEBUG")

	InitDebug()
	defer CloseDebug()

	if !DebugEnabled {
		t.Error("Debug should be enabled with APIARY_DEBUG=1")
	}
	if DebugLog == nil {
		t.Error("DebugLog should be initialized")
	}
}

func TestDebugFunctionNeverPanics(t *testing.T) {
	DebugEnabled = false
	DebugLog = nil
	Debug("test message %s", "arg")

	DebugEnabled = true
	DebugLog = nil
	Debug("test message %s", "arg")
}

func TestInitializeSetsUpAllThreeLoggers(t *testing.T) {
	Initialize()
	if ErrorLog == nil || WarningLog == nil || InfoLog == nil {
		t.Fatal("expected ErrorLog, WarningLog, and InfoLog to be non-nil after Initialize")
	}
}
