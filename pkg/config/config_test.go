package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Keep  string `yaml:"keep"`
	fails bool
}

func (s *sample) Validate() error {
	if s.fails || s.Port < 0 {
		return errors.New("bad port")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("FLASHDECK_TEST_NAME", "deck")
	path := writeFile(t, "name: ${FLASHDECK_TEST_NAME}\nport: 9000\n")

	cfg := sample{Keep: "default"}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "deck" || cfg.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Keep != "default" {
		t.Errorf("Keep = %q, default should survive", cfg.Keep)
	}
}

func TestLoad_Validates(t *testing.T) {
	path := writeFile(t, "port: -1\n")
	var cfg sample
	err := Load(path, &cfg)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeFile(t, "port: [\n")
	var cfg sample
	if err := Load(path, &cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadWithDefaults_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg := sample{Port: 8080}
	if err := LoadWithDefaults(missing, "", &cfg); err != nil {
		t.Fatalf("missing file should fall back to target: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d", cfg.Port)
	}

	cfg = sample{fails: true}
	if err := LoadWithDefaults(missing, "", &cfg); err == nil {
		t.Error("defaults must still be validated")
	}
}

func TestLoadWithDefaults_DefaultFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	fallback := writeFile(t, "name: fallback\n")

	var cfg sample
	if err := LoadWithDefaults(missing, fallback, &cfg); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.Name != "fallback" {
		t.Errorf("Name = %q", cfg.Name)
	}
}
