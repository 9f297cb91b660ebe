// Package main generates a diet plan from the command line and writes the PDF
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/fx"

	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/internal/domain/profile"
	"github.com/nutriplan/dietplan/internal/infrastructure/container"
	"github.com/nutriplan/dietplan/internal/ports/inbound"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeUsage   = 2
)

// Options holds command-line configuration
type Options struct {
	Input      profile.Input
	Output     string
	ConfigPath string
	Timeout    time.Duration
}

func main() {
	os.Exit(run(parseFlags(os.Args[1:]), os.Stdout, os.Stderr))
}

func parseFlags(args []string) Options {
	defaults := profile.Defaults()
	opts := Options{Input: defaults}

	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	fs.StringVar(&opts.Input.Name, "name", defaults.Name, "Your name")
	fs.IntVar(&opts.Input.Age, "age", defaults.Age, "Age in years (12-100)")
	fs.IntVar(&opts.Input.HeightCM, "height", defaults.HeightCM, "Height in cm (100-220)")
	fs.IntVar(&opts.Input.WeightKG, "weight", defaults.WeightKG, "Weight in kg (30-150)")
	fs.Func("gender", "Male, Female or Other", func(v string) error {
		opts.Input.Gender = profile.Gender(v)
		return nil
	})
	fs.Func("diet", "Veg, Non-Veg or Vegan", func(v string) error {
		opts.Input.DietType = profile.DietType(v)
		return nil
	})
	fs.StringVar(&opts.Input.Allergies, "allergies", "", "Allergies, comma separated")
	fs.Func("cuisine", "Preferred cuisine", func(v string) error {
		opts.Input.Cuisine = profile.Cuisine(v)
		return nil
	})
	fs.Func("activity", "Low, Moderate or High", func(v string) error {
		opts.Input.ActivityLevel = profile.ActivityLevel(v)
		return nil
	})
	fs.Func("goal", "Weight Loss, Muscle Gain or Maintenance", func(v string) error {
		opts.Input.Goal = profile.Goal(v)
		return nil
	})
	fs.Func("budget", "Low, Medium or High", func(v string) error {
		opts.Input.Budget = profile.Budget(v)
		return nil
	})
	fs.StringVar(&opts.Input.CustomFoods, "foods", "", "Foods to look up, comma separated")
	fs.StringVar(&opts.Output, "o", "", "Where to write the PDF (default: <name>_diet_plan.pdf)")
	fs.StringVar(&opts.ConfigPath, "config", "", "Configuration file path")
	fs.DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "Overall timeout")
	_ = fs.Parse(args)

	return opts
}

func run(opts Options, stdout, stderr io.Writer) int {
	p, err := profile.New(opts.Input)
	if err != nil {
		fmt.Fprintln(stderr, "Invalid profile:")
		if appErr, ok := apperrors.As(err); ok {
			if verrs, ok := appErr.Metadata["validation_errors"].(apperrors.ValidationErrors); ok {
				for _, v := range verrs {
					fmt.Fprintf(stderr, "  - %s\n", v.Message)
				}
				return exitCodeUsage
			}
		}
		fmt.Fprintf(stderr, "  - %v\n", err)
		return exitCodeUsage
	}

	var plans inbound.PlanService
	app := fx.New(
		fx.NopLogger,
		container.CoreModule(opts.ConfigPath),
		fx.Populate(&plans),
	)
	if err := app.Err(); err != nil {
		fmt.Fprintf(stderr, "Failed to initialise: %v\n", err)
		return exitCodeFailure
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "Failed to start: %v\n", err)
		return exitCodeFailure
	}
	defer func() {
		_ = app.Stop(context.Background())
	}()

	result, err := plans.Generate(ctx, p)
	if err != nil {
		printError(stderr, err)
		return exitCodeFailure
	}

	return report(result, opts.Output, stdout, stderr)
}

func report(result *inbound.PlanResult, output string, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, result.Plan.Text)

	if len(result.Nutrition) > 0 {
		fmt.Fprintln(stdout, "\nNutrition facts (per 100 g):")
		for _, fn := range result.Nutrition {
			if fn.Err != nil {
				fmt.Fprintf(stdout, "  %s: unavailable (%s)\n", fn.Food, apperrors.GetCode(fn.Err))
				continue
			}
			fmt.Fprintf(stdout, "  %s: %s\n", fn.Food, fn.Info.Summary())
		}
	}

	if result.RenderErr != nil {
		fmt.Fprintf(stderr, "\nThe PDF could not be generated: %v\n", result.RenderErr)
		return exitCodeFailure
	}

	path, err := writeDocument(result.Document, output)
	if err != nil {
		fmt.Fprintf(stderr, "\nFailed to write PDF: %v\n", err)
		return exitCodeFailure
	}
	fmt.Fprintf(stdout, "\nPDF written to %s\n", path)
	return exitCodeSuccess
}

func writeDocument(doc *plan.Document, output string) (string, error) {
	if doc == nil {
		return "", errors.New("no document was produced")
	}
	if output == "" {
		output = doc.Filename
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		output = filepath.Join(output, doc.Filename)
	}
	if err := os.WriteFile(output, doc.Data, 0o644); err != nil {
		return "", err
	}
	return output, nil
}

func printError(w io.Writer, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		fmt.Fprintf(w, "Failed to generate diet plan: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Failed to generate diet plan: %s\n", appErr.Message)
	if appErr.UpstreamStatus != 0 {
		fmt.Fprintf(w, "Status: %d\n", appErr.UpstreamStatus)
	}
	if appErr.Details != "" {
		fmt.Fprintf(w, "Details: %s\n", appErr.Details)
	}
}
