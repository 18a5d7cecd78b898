package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

const watchTestTimeout = 5 * time.Second

// watchSetup writes an initial config file, points viper at it, and returns
// a started watcher with buffered reload and error channels.
func watchSetup(t *testing.T, initial string) (path string, reloads chan *Config, errs chan error) {
	t.Helper()
	dir := t.TempDir()
	path = filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, initial)

	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	reloads = make(chan *Config, 4)
	errs = make(chan error, 4)
	w, err := NewWatcher(path,
		func(cfg *Config) { reloads <- cfg },
		func(err error) { errs <- err },
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.Start()
	t.Cleanup(w.Stop)
	return path, reloads, errs
}

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
}

func TestWatcherDeliversValidatedReload(t *testing.T) {
	path, reloads, errs := watchSetup(t, "engine:\n  retry_attempts: 3\n")

	writeConfigFile(t, path, "engine:\n  retry_attempts: 9\n")

	select {
	case cfg := <-reloads:
		if cfg.Engine.RetryAttempts != 9 {
			t.Errorf("RetryAttempts = %d, want 9", cfg.Engine.RetryAttempts)
		}
	case err := <-errs:
		t.Fatalf("reload rejected: %v", err)
	case <-time.After(watchTestTimeout):
		t.Fatal("no reload delivered")
	}
}

func TestWatcherRejectsInvalidEdit(t *testing.T) {
	path, reloads, errs := watchSetup(t, "engine:\n  retry_attempts: 3\n")

	// Unparseable yaml must surface through onError, never onChange.
	writeConfigFile(t, path, "engine:\n  retry_attempts: [oops\n")

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("onError delivered a nil error")
		}
	case cfg := <-reloads:
		t.Fatalf("invalid edit delivered as a reload: %+v", cfg.Engine)
	case <-time.After(watchTestTimeout):
		t.Fatal("no rejection reported")
	}
}

func TestWatcherKeepsPreviousConfigOnValidationFailure(t *testing.T) {
	path, reloads, errs := watchSetup(t, "scaling:\n  max_agents: 4\n")

	// Parses fine but fails validation.
	writeConfigFile(t, path, "scaling:\n  max_agents: 0\n")

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("onError delivered a nil error")
		}
	case cfg := <-reloads:
		t.Fatalf("invalid config delivered as a reload: %+v", cfg.Scaling)
	case <-time.After(watchTestTimeout):
		t.Fatal("no rejection reported")
	}
}
