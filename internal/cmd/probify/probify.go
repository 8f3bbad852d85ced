// Package probify parses driver flags and runs a notation program end
// to end: compile, evaluate, and render the resulting distribution.
package probify

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	entrypoint "github.com/louisbranch/probify/internal/platform/cmd"

	"github.com/louisbranch/probify/internal/dist"
	"github.com/louisbranch/probify/internal/eval"
	"github.com/louisbranch/probify/internal/notation"
	"github.com/louisbranch/probify/internal/render"
	"github.com/louisbranch/probify/internal/stats"
	"github.com/louisbranch/probify/internal/storage/sqlite"
)

// Config holds driver configuration.
type Config struct {
	File            string  `env:"PROBIFY_FILE" envDefault:"code.txt"`
	DBPath          string  `env:"PROBIFY_DB" envDefault:"probify.db"`
	DecimalPoints   int     `env:"PROBIFY_DECIMAL_POINTS" envDefault:"2"`
	MinLabelPercent float64 `env:"PROBIFY_MIN_LABEL_PERCENT" envDefault:"1.0"`
	ShowInterval    bool    `env:"PROBIFY_SHOW_CONFIDENCE_INTERVALS" envDefault:"true"`
	ConfidenceLevel float64 `env:"PROBIFY_CONFIDENCE_LEVEL" envDefault:"0.90"`
	ChartWidth      int     `env:"PROBIFY_CHART_WIDTH" envDefault:"40"`

	// Program-library operations, flag-only.
	Name   string
	Save   string
	Delete string
	List   bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.File, "file", cfg.File, "Program file to run")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Program library database path")
	fs.IntVar(&cfg.DecimalPoints, "decimals", cfg.DecimalPoints, "Decimal places for probability labels")
	fs.Float64Var(&cfg.MinLabelPercent, "min-label", cfg.MinLabelPercent, "Hide labels for probabilities below this percent")
	fs.BoolVar(&cfg.ShowInterval, "ci", cfg.ShowInterval, "Show confidence interval bounds")
	fs.Float64Var(&cfg.ConfidenceLevel, "level", cfg.ConfidenceLevel, "Confidence interval level")
	fs.IntVar(&cfg.ChartWidth, "width", cfg.ChartWidth, "Maximum bar width in cells")
	fs.StringVar(&cfg.Name, "name", "", "Run a stored program instead of a file")
	fs.StringVar(&cfg.Save, "save", "", "Store the program file under this name")
	fs.StringVar(&cfg.Delete, "delete", "", "Delete the stored program with this name")
	fs.BoolVar(&cfg.List, "list", false, "List stored programs")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the driver against stdout.
func Run(ctx context.Context, cfg Config) error {
	return run(ctx, cfg, os.Stdout)
}

func run(ctx context.Context, cfg Config, out io.Writer) error {
	switch {
	case cfg.List:
		return listPrograms(ctx, cfg, out)
	case cfg.Save != "":
		return saveProgram(ctx, cfg, out)
	case cfg.Delete != "":
		return deleteProgram(ctx, cfg, out)
	}

	source, err := loadSource(ctx, cfg)
	if err != nil {
		return err
	}
	return runProgram(source, cfg, out)
}

// loadSource reads program text from the library when a stored name is
// given, and from the program file otherwise.
func loadSource(ctx context.Context, cfg Config) (string, error) {
	if cfg.Name != "" {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return "", err
		}
		defer store.Close()
		program, err := store.GetProgram(ctx, cfg.Name)
		if err != nil {
			return "", err
		}
		return program.Source, nil
	}

	raw, err := os.ReadFile(cfg.File)
	if err != nil {
		return "", fmt.Errorf("read program file: %w", err)
	}
	return string(raw), nil
}

// runProgram compiles, evaluates, and renders one program.
func runProgram(source string, cfg Config, out io.Writer) error {
	prog, err := notation.Compile(source)
	if err != nil {
		return fmt.Errorf("compile program: %w", err)
	}

	env := eval.NewEnvironment()
	if err := eval.Run(prog, env); err != nil {
		return fmt.Errorf("evaluate program: %w", err)
	}

	result, err := env.Result()
	if err != nil {
		if errors.Is(err, eval.ErrMissingResult) {
			// The run completed; a missing result binding is reported, not
			// raised.
			fmt.Fprintf(out, "error: %v\n", err)
			return nil
		}
		return err
	}

	return report(result, cfg, out)
}

func report(result dist.Dist, cfg Config, out io.Writer) error {
	summary, err := stats.Summarize(result)
	if err != nil {
		return err
	}

	opts := render.Options{
		Width:           cfg.ChartWidth,
		DecimalPoints:   cfg.DecimalPoints,
		MinLabelPercent: cfg.MinLabelPercent,
	}
	if cfg.ShowInterval {
		interval, err := stats.ConfidenceInterval(result, cfg.ConfidenceLevel)
		if err != nil {
			return err
		}
		opts.Interval = &interval
	}

	chart, err := render.Chart(result, opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Distribution for result")
	fmt.Fprint(out, chart)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary Statistics:")
	fmt.Fprint(out, render.SummaryTable(summary, cfg.DecimalPoints))
	return nil
}

func listPrograms(ctx context.Context, cfg Config, out io.Writer) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	programs, err := store.ListPrograms(ctx)
	if err != nil {
		return err
	}
	if len(programs) == 0 {
		fmt.Fprintln(out, "no stored programs")
		return nil
	}
	for _, program := range programs {
		fmt.Fprintf(out, "%s\t%s\n", program.Name, program.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// saveProgram validates the program file compiles before storing it.
func saveProgram(ctx context.Context, cfg Config, out io.Writer) error {
	raw, err := os.ReadFile(cfg.File)
	if err != nil {
		return fmt.Errorf("read program file: %w", err)
	}
	if _, err := notation.Compile(string(raw)); err != nil {
		return fmt.Errorf("compile program: %w", err)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveProgram(ctx, cfg.Save, string(raw)); err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %q\n", cfg.Save)
	return nil
}

func deleteProgram(ctx context.Context, cfg Config, out io.Writer) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteProgram(ctx, cfg.Delete); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %q\n", cfg.Delete)
	return nil
}
