package probify

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProgram(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "code.txt")
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		t.Fatalf("write program file: %v", err)
	}
	return path
}

func baseConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		DBPath:          filepath.Join(t.TempDir(), "programs.db"),
		DecimalPoints:   2,
		MinLabelPercent: 1.0,
		ShowInterval:    true,
		ConfidenceLevel: 0.90,
		ChartWidth:      20,
	}
}

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("probify", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.File != "code.txt" {
		t.Fatalf("expected default file code.txt, got %q", cfg.File)
	}
	if cfg.DecimalPoints != 2 || cfg.MinLabelPercent != 1.0 || cfg.ConfidenceLevel != 0.90 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.ShowInterval {
		t.Fatal("expected confidence intervals on by default")
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("probify", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-file", "attack.dice", "-decimals", "1", "-ci=false", "-width", "60"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.File != "attack.dice" || cfg.DecimalPoints != 1 || cfg.ShowInterval || cfg.ChartWidth != 60 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestRunRendersChartAndStats(t *testing.T) {
	cfg := baseConfig(t)
	cfg.File = writeProgram(t, "result = 2d6")

	var out strings.Builder
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Distribution for result", "16.67%", "Summary Statistics:", "Mean", "7.00", "90% confidence interval: [3, 11]"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunWithoutIntervals(t *testing.T) {
	cfg := baseConfig(t)
	cfg.File = writeProgram(t, "result = 1d6")
	cfg.ShowInterval = false

	var out strings.Builder
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if strings.Contains(out.String(), "confidence interval") {
		t.Fatalf("interval rendered while disabled:\n%s", out.String())
	}
}

func TestRunReportsMissingResult(t *testing.T) {
	cfg := baseConfig(t)
	cfg.File = writeProgram(t, "x = 1d6")

	var out strings.Builder
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("missing result should be reported, not raised: %v", err)
	}
	if !strings.Contains(out.String(), "result") {
		t.Fatalf("missing-result report absent:\n%s", out.String())
	}
}

func TestRunFailsOnInvalidNotation(t *testing.T) {
	cfg := baseConfig(t)
	cfg.File = writeProgram(t, `result = roll("6z6")`)

	var out strings.Builder
	if err := run(context.Background(), cfg, &out); err == nil {
		t.Fatal("expected error for invalid notation")
	}
}

func TestRunFailsOnMissingFile(t *testing.T) {
	cfg := baseConfig(t)
	cfg.File = filepath.Join(t.TempDir(), "absent.txt")

	var out strings.Builder
	if err := run(context.Background(), cfg, &out); err == nil {
		t.Fatal("expected error for missing program file")
	}
}

func TestSaveListRunAndDeleteStoredProgram(t *testing.T) {
	ctx := context.Background()
	cfg := baseConfig(t)
	cfg.File = writeProgram(t, "result = 2d6")

	var out strings.Builder
	cfg.Save = "attack"
	if err := run(ctx, cfg, &out); err != nil {
		t.Fatalf("save returned error: %v", err)
	}
	cfg.Save = ""

	out.Reset()
	cfg.List = true
	if err := run(ctx, cfg, &out); err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if !strings.Contains(out.String(), "attack") {
		t.Fatalf("list missing stored program:\n%s", out.String())
	}
	cfg.List = false

	out.Reset()
	cfg.Name = "attack"
	cfg.File = ""
	if err := run(ctx, cfg, &out); err != nil {
		t.Fatalf("stored run returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Summary Statistics:") {
		t.Fatalf("stored run produced no report:\n%s", out.String())
	}
	cfg.Name = ""

	out.Reset()
	cfg.Delete = "attack"
	if err := run(ctx, cfg, &out); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
}

func TestSaveRejectsUnparsableProgram(t *testing.T) {
	cfg := baseConfig(t)
	cfg.File = writeProgram(t, "if x < 3\n    x = 1")
	cfg.Save = "broken"

	var out strings.Builder
	if err := run(context.Background(), cfg, &out); err == nil {
		t.Fatal("expected compile error while saving")
	}
}
