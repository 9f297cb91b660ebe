// Package main provides a standalone health check command for the diet planner.
// It can be used for container health checks, monitoring scripts and debugging.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nutriplan/dietplan/internal/infrastructure/config"
	"github.com/nutriplan/dietplan/internal/infrastructure/container"
	"github.com/nutriplan/dietplan/pkg/healthcheck"
	"github.com/nutriplan/dietplan/pkg/logger"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Options holds command-line configuration
type Options struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
	ConfigPath     string
	LocalCheck     bool
}

func main() {
	opts := parseFlags()

	if opts.LocalCheck {
		os.Exit(runLocalHealthCheck(opts, os.Stdout))
	}
	os.Exit(runRemoteHealthCheck(opts, os.Stdout))
}

// parseFlags parses command-line flags
func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.URL, "url", "", "Health check endpoint URL (e.g., http://localhost:8080/health)")
	flag.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Verbose output")
	flag.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, compact")
	flag.StringVar(&opts.ExpectedStatus, "expect", "healthy", "Expected status: healthy, degraded, unhealthy")
	flag.IntVar(&opts.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&opts.RetryDelay, "retry-delay", 1*time.Second, "Delay between retries")
	flag.StringVar(&opts.ConfigPath, "config", "", "Configuration file path")
	flag.BoolVar(&opts.LocalCheck, "local", false, "Run the checks in-process instead of calling the server")

	flag.Parse()

	if opts.URL == "" {
		opts.URL = os.Getenv("HEALTH_CHECK_URL")
	}
	if opts.URL == "" {
		opts.URL = "http://localhost:8080/health"
	}

	return opts
}

// runRemoteHealthCheck performs a remote health check via HTTP
func runRemoteHealthCheck(opts Options, out io.Writer) int {
	client := &http.Client{Timeout: opts.Timeout}

	var lastError error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			if opts.Verbose {
				fmt.Fprintf(out, "Retrying in %v... (attempt %d/%d)\n", opts.RetryDelay, attempt, opts.RetryCount)
			}
			time.Sleep(opts.RetryDelay)
		}

		resp, err := client.Get(opts.URL)
		if err != nil {
			lastError = err
			if opts.Verbose {
				fmt.Fprintf(out, "Request failed: %v\n", err)
			}
			continue
		}

		return handleResponse(resp, opts, out)
	}

	fmt.Fprintf(out, "Health check failed after %d attempts: %v\n", opts.RetryCount+1, lastError)
	return exitCodeError
}

// runLocalHealthCheck builds the same checks as the server and runs them once
func runLocalHealthCheck(opts Options, out io.Writer) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(out, "Failed to load configuration: %v\n", err)
		return exitCodeError
	}

	log, err := logger.New(logger.Config{
		Level:  "error",
		Format: "json",
	})
	if err != nil {
		fmt.Fprintf(out, "Failed to create logger: %v\n", err)
		return exitCodeError
	}

	repo, closeRepo, err := container.OpenCacheRepository(cfg, log)
	if err != nil {
		fmt.Fprintf(out, "Failed to open cache: %v\n", err)
		return exitCodeError
	}
	defer closeRepo()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	return outputResult(container.NewHealthCheck(cfg, repo, log).Check(ctx), opts, out)
}

// handleResponse handles the HTTP response
func handleResponse(resp *http.Response, opts Options, out io.Writer) int {
	defer resp.Body.Close()

	var response map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		fmt.Fprintf(out, "Failed to decode response: %v\n", err)
		return exitCodeError
	}

	return outputResult(response, opts, out)
}

// outputResult outputs the result based on the configured format
func outputResult(result interface{}, opts Options, out io.Writer) int {
	status := extractStatus(result)

	switch opts.OutputFormat {
	case "json":
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(out, string(data))
	case "compact":
		data, _ := json.Marshal(result)
		fmt.Fprintln(out, string(data))
	default:
		outputText(result, opts.Verbose, out)
	}

	return exitCode(status, healthcheck.Status(opts.ExpectedStatus))
}

// exitCode compares the observed status with the expected one. Anything at
// least as good as expected succeeds.
func exitCode(status, expected healthcheck.Status) int {
	if status == expected {
		return exitCodeSuccess
	}
	if status == healthcheck.StatusUnhealthy {
		return exitCodeFailure
	}
	if status == healthcheck.StatusDegraded && expected == healthcheck.StatusHealthy {
		return exitCodeFailure
	}
	return exitCodeSuccess
}

// extractStatus extracts the status from the result
func extractStatus(result interface{}) healthcheck.Status {
	switch r := result.(type) {
	case healthcheck.Response:
		return r.Status
	case map[string]interface{}:
		if status, ok := r["status"].(string); ok {
			return healthcheck.Status(status)
		}
	}
	return healthcheck.StatusUnhealthy
}

// outputText outputs the result in text format
func outputText(result interface{}, verbose bool, out io.Writer) {
	switch r := result.(type) {
	case healthcheck.Response:
		fmt.Fprintf(out, "Status: %s\n", r.Status)
		fmt.Fprintf(out, "Version: %s\n", r.Version)
		fmt.Fprintf(out, "Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(out, "Duration: %dms\n", r.TotalDuration.Milliseconds())

		if verbose && len(r.Checks) > 0 {
			fmt.Fprintln(out, "\nChecks:")
			for _, check := range r.Checks {
				fmt.Fprintf(out, "  %s: %s", check.Name, check.Status)
				if check.Message != "" {
					fmt.Fprintf(out, " (%s)", check.Message)
				}
				fmt.Fprintf(out, " [%dms]\n", check.Duration.Milliseconds())
			}
		}

	case map[string]interface{}:
		if status, ok := r["status"].(string); ok {
			fmt.Fprintf(out, "Status: %s\n", status)
		}
		if version, ok := r["version"].(string); ok {
			fmt.Fprintf(out, "Version: %s\n", version)
		}
		if verbose {
			data, _ := json.MarshalIndent(r, "", "  ")
			fmt.Fprintln(out, string(data))
		}

	default:
		fmt.Fprintf(out, "Unknown result type: %T\n", result)
	}
}
