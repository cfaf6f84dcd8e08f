package seed

import "os"

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Ranking Engine Seed Tool
========================

Generates employees and monthly measurements, submits them to a running
ranking engine and prints the resulting consolidated ranking.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -employees int
        Number of employees to generate (default 50)
  -months int
        Number of months per employee (default 6)
  -end string
        Last generated month, YYYY-MM (default: current month)
  -departments string
        Comma-separated departments (default "Vendas,Suporte,Financeiro")
  -gaps float
        Share of measurements left missing (default 0.05)
  -noise float
        Share of measurements sent as unreadable text (default 0.01)
  -batch int
        Measurements per request (default 200)
  -top int
        Ranking rows printed at the end (default 20)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed uint
        Random seed; 0 picks one from the clock
  -output string
        Output file for the dataset (default: seed_dataset_TIMESTAMP.json)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed a local service with defaults
  go run ./cmd/seed

  # A reproducible year of data for 200 employees
  go run ./cmd/seed -employees 200 -months 12 -end 2024-12 -seed 42
`)
}
