package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Width int `env:"PROBIFY_TEST_WIDTH" envDefault:"40"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Width != 40 {
		t.Fatalf("expected default width 40, got %d", cfg.Width)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("PROBIFY_TEST_WIDTH", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
