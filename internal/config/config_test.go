package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromFile_Valid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("rules:\n  - device-use\n  - first-interaction\n"), 0644)

	var c Config
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if len(c.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(c.Rules))
	}
	if c.Rules[0] != "device-use" || c.Rules[1] != "first-interaction" {
		t.Errorf("unexpected rules: %v", c.Rules)
	}
}

func TestLoadFromFile_UnknownRule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("rules:\n  - device-use\n  - bogus\n"), 0644)

	var c Config
	err := c.LoadFromFile(path)
	if err == nil {
		t.Fatal("expected error for unknown rule")
	}
}

func TestLoadFromFile_EmptyDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("rules: []\n"), 0644)

	var c Config
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if len(c.Rules) != 6 {
		t.Errorf("expected 6 default rules, got %d: %v", len(c.Rules), c.Rules)
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	var c Config
	err := c.LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseAsOf(t *testing.T) {
	t.Run("explicit_date", func(t *testing.T) {
		c := Config{AsOf: "2025-02-28"}
		got, err := c.ParseAsOf()
		if err != nil {
			t.Fatalf("ParseAsOf: %v", err)
		}
		want := time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("empty_defaults_to_now", func(t *testing.T) {
		c := Config{}
		got, err := c.ParseAsOf()
		if err != nil {
			t.Fatalf("ParseAsOf: %v", err)
		}
		if time.Since(got) > time.Minute {
			t.Errorf("expected roughly now, got %v", got)
		}
	})

	t.Run("malformed_fails", func(t *testing.T) {
		c := Config{AsOf: "28/02/2025"}
		if _, err := c.ParseAsOf(); err == nil {
			t.Fatal("expected error for malformed date")
		}
	})
}

func TestParseRange(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c := Config{Start: "2025-02-01", End: "2025-02-28"}
		start, end, err := c.ParseRange()
		if err != nil {
			t.Fatalf("ParseRange: %v", err)
		}
		if !end.After(start) {
			t.Errorf("end %v should be after start %v", end, start)
		}
	})

	t.Run("missing_bound", func(t *testing.T) {
		c := Config{Start: "2025-02-01"}
		if _, _, err := c.ParseRange(); err == nil {
			t.Fatal("expected error for missing end")
		}
	})

	t.Run("inverted", func(t *testing.T) {
		c := Config{Start: "2025-02-28", End: "2025-02-01"}
		if _, _, err := c.ParseRange(); err == nil {
			t.Fatal("expected error for inverted range")
		}
	})
}
