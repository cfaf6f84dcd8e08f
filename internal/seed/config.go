package seed

import "time"

// Config holds configuration for one seeding run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Employees   int           // Number of employees to generate
	Months      int           // Number of months per employee
	EndMonth    string        // Last generated month, YYYY-MM
	Departments []string      // Departments employees are spread over
	GapRatio    float64       // Share of measurements left missing
	NoiseRatio  float64       // Share of measurements sent as unreadable text
	BatchSize   int           // Measurements per POST
	TopN        int           // Ranking rows fetched at the end
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	Seed        uint64        // Random seed; 0 picks one from the clock
	OutputFile  string        // Output file for the generated dataset
	Verbose     bool          // Enable verbose logging
}

// Criterion mirrors the registry entries served by GET /criteria.
type Criterion struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Weight    float64 `json:"weight"`
	Direction string  `json:"direction"`
	Active    bool    `json:"active"`
}

// Employee is one generated directory entry.
type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

// Measurement is one generated raw value.
type Measurement struct {
	EmployeeID  string `json:"employee_id"`
	CriterionID string `json:"criterion_id"`
	Period      string `json:"period"`
	RawValue    any    `json:"raw_value"`
}

// Dataset is everything a run submits.
type Dataset struct {
	Employees    []Employee    `json:"employees"`
	Measurements []Measurement `json:"measurements"`
}

// Row is the subset of a ranking row the runner reports on.
type Row struct {
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name"`
	Department    string  `json:"department"`
	TotalScore    float64 `json:"total_score"`
	RankPosition  int     `json:"rank_position"`
	RankVariation *int    `json:"rank_variation"`
}

// Stats holds run statistics.
type Stats struct {
	EmployeesSubmitted int
	BatchesSubmitted   int
	BatchesFailed      int
	MeasurementsSent   int
	RankingRows        int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
