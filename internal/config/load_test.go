package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/config"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadMergesLeftToRight(t *testing.T) {
	dir := t.TempDir()
	base := writeTemp(t, dir, "base.yaml", `
uart:
  port: /dev/ttyUSB0
  baud_rate: 115200
tracker:
  max_distance: 1.0
clustering:
  max_radius: 0.5
session:
  root_dir: /tmp/sessions
`)
	override := writeTemp(t, dir, "override.yaml", `
uart:
  port: /dev/ttyACM0
`)

	cfg, err := config.Load([]string{base, override})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Uart.Port != "/dev/ttyACM0" {
		t.Fatalf("expected override to win, got port=%q", cfg.Uart.Port)
	}
	if cfg.Uart.BaudRate != 115200 {
		t.Fatalf("expected base.uart.baud_rate to survive merge, got %d", cfg.Uart.BaudRate)
	}
}

func TestLoadMissingRequiredFieldFails(t *testing.T) {
	dir := t.TempDir()
	base := writeTemp(t, dir, "base.yaml", `
uart:
  port: /dev/ttyUSB0
  baud_rate: 115200
`)
	_, err := config.Load([]string{base})
	if err == nil {
		t.Fatalf("expected an error for missing tracker.max_distance etc.")
	}
	var cerr *config.ConfigError
	if !asConfigError(err, &cerr) {
		t.Fatalf("expected a *config.ConfigError, got %T: %v", err, err)
	}
}

func asConfigError(err error, out **config.ConfigError) bool {
	ce, ok := err.(*config.ConfigError)
	if ok {
		*out = ce
	}
	return ok
}

func TestDurationUnmarshal(t *testing.T) {
	dir := t.TempDir()
	base := writeTemp(t, dir, "base.yaml", `
uart:
  port: /dev/ttyUSB0
  baud_rate: 115200
  read_timeout: 20ms
tracker:
  max_distance: 1.0
clustering:
  max_radius: 0.5
session:
  root_dir: /tmp/sessions
`)
	cfg, err := config.Load([]string{base})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if clock.Duration(cfg.Uart.ReadTimeout) != 20*clock.Millisecond {
		t.Fatalf("expected 20ms, got %v", cfg.Uart.ReadTimeout)
	}
}
