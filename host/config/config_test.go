package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stepctl.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")
	// An explicit -config that does not exist is an error
	if _, err := Load("stepctl", []string{"-config", missing}); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}

	// Run from an empty directory so the default file is absent
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load("stepctl", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadFileThenFlags(t *testing.T) {
	path := writeFile(t, `
device: /dev/ttyUSB3
baud: 230400
read_timeout: 250ms
microsteps: 8
`)

	cfg, err := Load("stepctl", []string{"-config", path, "-baud", "57600", "-response-timeout", "5s"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Device != "/dev/ttyUSB3" {
		t.Errorf("Device = %q, want file value", cfg.Device)
	}
	if cfg.Baud != 57600 {
		t.Errorf("Baud = %d, want flag value 57600", cfg.Baud)
	}
	if cfg.ReadTimeout != 250*time.Millisecond {
		t.Errorf("ReadTimeout = %s", cfg.ReadTimeout)
	}
	if cfg.ResponseTimeout != 5*time.Second {
		t.Errorf("ResponseTimeout = %s", cfg.ResponseTimeout)
	}
	if cfg.OpenTimeout != Default().OpenTimeout {
		t.Errorf("OpenTimeout = %s, want default", cfg.OpenTimeout)
	}
	if cfg.Microsteps != 8 {
		t.Errorf("Microsteps = %d", cfg.Microsteps)
	}

	sc := cfg.Serial()
	if sc.Device != cfg.Device || sc.Baud != 57600 || sc.ReadTimeout != 250*time.Millisecond {
		t.Errorf("Serial() = %+v", sc)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := writeFile(t, "microsteps: 3\n")
	if _, err := Load("stepctl", []string{"-config", path}); err == nil {
		t.Error("expected error for microsteps 3")
	}

	path = writeFile(t, "baud: [1, 2\n")
	if _, err := Load("stepctl", []string{"-config", path}); err == nil {
		t.Error("expected error for malformed YAML")
	}

	if _, err := Load("stepctl", []string{"-no-such-flag"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Baud = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero baud")
	}

	cfg = Default()
	cfg.Device = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty device")
	}
}
