package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/taskfloat/internal/model"
)

type RuntimeConfig struct {
	StorePath            string
	StoreBackend         string
	LogFile              string
	MaxTasks             int
	UndoWindow           time.Duration
	AutoAdvanceDelay     time.Duration
	SaveEveryTicks       int
	WarningSeconds       int
	DesktopNotifications bool
	Sound                bool
	SchedulerBuffer      int
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		StorePath:            defaultStorePath(),
		StoreBackend:         "json",
		MaxTasks:             model.MaxTasks,
		UndoWindow:           5 * time.Second,
		AutoAdvanceDelay:     2 * time.Second,
		SaveEveryTicks:       10,
		WarningSeconds:       model.WarningThresholdSeconds,
		DesktopNotifications: true,
		Sound:                true,
		SchedulerBuffer:      64,
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "tasks.json"
	}
	return filepath.Join(dir, "taskfloat", "tasks.json")
}

func FromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("TASKFLOAT_STORE_PATH")); v != "" {
		cfg.StorePath = v
	}
	if v := strings.TrimSpace(strings.ToLower(os.Getenv("TASKFLOAT_STORE_BACKEND"))); v != "" {
		cfg.StoreBackend = v
	}
	if v := strings.TrimSpace(os.Getenv("TASKFLOAT_LOG_FILE")); v != "" {
		cfg.LogFile = v
	}
	if v, ok := getEnvInt("TASKFLOAT_MAX_TASKS"); ok && v > 0 {
		cfg.MaxTasks = v
	}
	if v, ok := getEnvDuration("TASKFLOAT_UNDO_WINDOW"); ok && v > 0 {
		cfg.UndoWindow = v
	}
	if v, ok := getEnvDuration("TASKFLOAT_AUTO_ADVANCE_DELAY"); ok && v >= 0 {
		cfg.AutoAdvanceDelay = v
	}
	if v, ok := getEnvInt("TASKFLOAT_SAVE_EVERY_TICKS"); ok && v > 0 {
		cfg.SaveEveryTicks = v
	}
	if v, ok := getEnvInt("TASKFLOAT_WARNING_SECONDS"); ok && v >= 0 {
		cfg.WarningSeconds = v
	}
	if v, ok := getEnvBool("TASKFLOAT_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvBool("TASKFLOAT_SOUND"); ok {
		cfg.Sound = v
	}
	if v, ok := getEnvInt("TASKFLOAT_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	return cfg
}

func (c RuntimeConfig) Validate() error {
	if strings.TrimSpace(c.StorePath) == "" {
		return errors.New("config: store path is required")
	}
	switch c.StoreBackend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("config: unknown store backend %q", c.StoreBackend)
	}
	if c.MaxTasks <= 0 {
		return fmt.Errorf("config: max tasks must be positive, got %d", c.MaxTasks)
	}
	if c.UndoWindow <= 0 {
		return fmt.Errorf("config: undo window must be positive, got %s", c.UndoWindow)
	}
	if c.AutoAdvanceDelay < 0 {
		return fmt.Errorf("config: auto-advance delay must not be negative, got %s", c.AutoAdvanceDelay)
	}
	if c.SaveEveryTicks <= 0 {
		return fmt.Errorf("config: save cadence must be positive, got %d", c.SaveEveryTicks)
	}
	if c.SchedulerBuffer <= 0 {
		return fmt.Errorf("config: scheduler buffer must be positive, got %d", c.SchedulerBuffer)
	}
	return nil
}

// ResolvedLogFile places the log next to the store unless one was configured.
func (c RuntimeConfig) ResolvedLogFile() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(filepath.Dir(c.StorePath), "taskfloat.log")
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// getEnvDuration accepts Go duration strings or bare seconds.
func getEnvDuration(name string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return d, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
