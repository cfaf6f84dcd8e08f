package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/okian/rankengine/internal/seed"
	"github.com/okian/rankengine/pkg/logger"
)

// Default configuration constants.
const (
	defaultEmployees = 50
	defaultMonths    = 6
	defaultBatch     = 200
	defaultTopN      = 20
	defaultWorkers   = 2 // multiplier for runtime.NumCPU()
	defaultTimeout   = 30 * time.Second
	defaultRunLimit  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		employees   = flag.Int("employees", defaultEmployees, "Number of employees to generate")
		months      = flag.Int("months", defaultMonths, "Number of months per employee")
		endMonth    = flag.String("end", time.Now().UTC().Format("2006-01"), "Last generated month, YYYY-MM")
		departments = flag.String("departments", "Vendas,Suporte,Financeiro", "Comma-separated departments")
		gaps        = flag.Float64("gaps", 0.05, "Share of measurements left missing")
		noise       = flag.Float64("noise", 0.01, "Share of measurements sent as unreadable text")
		batch       = flag.Int("batch", defaultBatch, "Measurements per request")
		topN        = flag.Int("top", defaultTopN, "Ranking rows printed at the end")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seedValue   = flag.Uint64("seed", 0, "Random seed; 0 picks one from the clock")
		outputFile  = flag.String("output", "", "Output file for the dataset")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(level)

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Employees:   *employees,
		Months:      *months,
		EndMonth:    *endMonth,
		Departments: splitList(*departments),
		GapRatio:    *gaps,
		NoiseRatio:  *noise,
		BatchSize:   *batch,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		Seed:        *seedValue,
		OutputFile:  *outputFile,
		Verbose:     *verbose,
	}

	if err := seed.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Seed failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
