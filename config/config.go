// Package config loads and saves apiary's TOML configuration file and
// resolves the platform-appropriate directories apiary uses for its
// config, store, and worktrees (spec.md §6).
package config

import (
	"apiary/log"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	ConfigFileName = "config.toml"
	defaultProgram = "claude"
)

// GetConfigDir returns the directory holding config.toml.
func GetConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "apiary"), nil
}

// GetDataDir returns the per-user application data directory holding
// pods.json and the worktrees directory. apiary keeps this the same as
// GetConfigDir, matching the teacher's single-directory convention
// (`~/.claude-squad` held config, state, and worktrees together); spec.md
// §6 only requires the two paths be "platform-appropriate", not distinct.
func GetDataDir() (string, error) {
	return GetConfigDir()
}

// AssistantConfig names the external coding-assistant program to launch
// in new panes. The assistant process itself is treated as opaque.
type AssistantConfig struct {
	Program string `toml:"program"`
}

// GitConfig controls worktree/branch bookkeeping (SPEC_FULL.md §5).
type GitConfig struct {
	BranchPrefix string `toml:"branch_prefix"`
}

// PollingConfig is spec.md §6's [polling] table.
type PollingConfig struct {
	FocusedIntervalMS    int `toml:"focused_interval_ms"`
	PermissionIntervalMS int `toml:"permission_interval_ms"`
	WorkingIntervalMS    int `toml:"working_interval_ms"`
	IdleIntervalMS       int `toml:"idle_interval_ms"`
	ErrorIntervalMS      int `toml:"error_interval_ms"`
}

// NotificationConfig is spec.md §6's [notification] table.
type NotificationConfig struct {
	Enabled bool `toml:"enabled"`
	Sound   bool `toml:"sound"`
}

// DetectionConfig is spec.md §6's [detection] table: user-supplied regex
// patterns appended to the Detector's builtins.
type DetectionConfig struct {
	PermissionPatterns []string `toml:"permission_patterns"`
	ErrorPatterns      []string `toml:"error_patterns"`
	IdlePatterns       []string `toml:"idle_patterns"`
}

// Config is the full apiary configuration document.
type Config struct {
	Assistant    AssistantConfig     `toml:"assistant"`
	Git          GitConfig           `toml:"git"`
	Polling      PollingConfig       `toml:"polling"`
	Notification NotificationConfig  `toml:"notification"`
	Detection    DetectionConfig     `toml:"detection"`
}

// Default returns apiary's built-in configuration.
func Default() *Config {
	program, err := findAssistantCommand()
	if err != nil {
		log.ErrorLog.Printf("failed to locate assistant command: %v", err)
		program = defaultProgram
	}

	return &Config{
		Assistant: AssistantConfig{Program: program},
		Git:       GitConfig{BranchPrefix: defaultBranchPrefix()},
		Polling: PollingConfig{
			FocusedIntervalMS:    1000,
			PermissionIntervalMS: 1000,
			WorkingIntervalMS:    3000,
			IdleIntervalMS:       10000,
			ErrorIntervalMS:      5000,
		},
		Notification: NotificationConfig{Enabled: true, Sound: false},
		Detection:    DetectionConfig{},
	}
}

func defaultBranchPrefix() string {
	u, err := user.Current()
	if err != nil || u == nil || u.Username == "" {
		log.ErrorLog.Printf("failed to get current user: %v", err)
		return "apiary/"
	}
	return fmt.Sprintf("%s/", strings.ToLower(u.Username))
}

// findAssistantCommand resolves the assistant binary the same way the
// teacher resolves "claude": via the user's shell alias table, then PATH.
func findAssistantCommand() (string, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}

	var shellCmd string
	switch {
	case strings.Contains(shell, "zsh"):
		shellCmd = "source ~/.zshrc &>/dev/null || true; which " + defaultProgram
	case strings.Contains(shell, "bash"):
		shellCmd = "source ~/.bashrc &>/dev/null || true; which " + defaultProgram
	default:
		shellCmd = "which " + defaultProgram
	}

	cmd := exec.Command(shell, "-c", shellCmd)
	output, err := cmd.Output()
	if err == nil && len(output) > 0 {
		path := strings.TrimSpace(string(output))
		if path != "" {
			aliasRegex := regexp.MustCompile(`(?:aliased to|->|=)\s*(\S+)`)
			if m := aliasRegex.FindStringSubmatch(path); len(m) > 1 {
				path = m[1]
			}
			return path, nil
		}
	}

	if p, err := exec.LookPath(defaultProgram); err == nil {
		return p, nil
	}

	return "", fmt.Errorf("%s command not found in aliases or PATH", defaultProgram)
}

// Load reads config.toml, falling back to defaults (with a startup
// warning) on any read, parse, or validation failure, per spec.md §6
// ("Invalid values fall back to defaults and emit a startup warning").
func Load() *Config {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return Default()
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			def := Default()
			if saveErr := Save(def); saveErr != nil {
				log.WarningLog.Printf("failed to save default config: %v", saveErr)
			}
			return def
		}
		log.WarningLog.Printf("failed to read config file: %v", err)
		return Default()
	}

	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		preview := string(data)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		log.ErrorLog.Printf("failed to parse config file at %s: %v\ncontent preview: %s", configPath, err, preview)

		backupPath := configPath + ".corrupt." + time.Now().Format("20060102-150405")
		if backupErr := os.WriteFile(backupPath, data, 0644); backupErr == nil {
			log.InfoLog.Printf("backed up corrupted config to: %s", backupPath)
		}

		return Default()
	}

	validate(cfg)
	return cfg
}

// validate clamps invalid (non-positive) interval values back to the
// default, each emitting a startup warning rather than crashing.
func validate(cfg *Config) {
	def := Default()
	fix := func(name string, v *int, def int) {
		if *v <= 0 {
			log.WarningLog.Printf("config: %s must be positive, using default %dms", name, def)
			*v = def
		}
	}
	fix("polling.focused_interval_ms", &cfg.Polling.FocusedIntervalMS, def.Polling.FocusedIntervalMS)
	fix("polling.permission_interval_ms", &cfg.Polling.PermissionIntervalMS, def.Polling.PermissionIntervalMS)
	fix("polling.working_interval_ms", &cfg.Polling.WorkingIntervalMS, def.Polling.WorkingIntervalMS)
	fix("polling.idle_interval_ms", &cfg.Polling.IdleIntervalMS, def.Polling.IdleIntervalMS)
	fix("polling.error_interval_ms", &cfg.Polling.ErrorIntervalMS, def.Polling.ErrorIntervalMS)
}

// Save writes cfg to config.toml.
func Save(cfg *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(filepath.Join(configDir, ConfigFileName))
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
