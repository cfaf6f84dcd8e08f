package seed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const monthLayout = "2006-01"

var (
	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Elisa", "Fabio", "Gabriela", "Hugo", "Isabel", "Joao", "Larissa", "Marcos"}
	lastNames  = []string{"Silva", "Souza", "Oliveira", "Santos", "Lima", "Costa", "Pereira", "Almeida"}
	positions  = []string{"Analista", "Assistente", "Coordenador", "Especialista", "Tecnico"}
)

// Generator builds a reproducible dataset for a given seed.
type Generator struct {
	rng *rand.Rand
	cfg *Config
}

// NewGenerator returns a Generator for cfg.
func NewGenerator(cfg *Config) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), cfg: cfg}
}

// Months returns the generated months in chronological order.
func (g *Generator) Months() ([]string, error) {
	end, err := time.Parse(monthLayout, g.cfg.EndMonth)
	if err != nil {
		return nil, fmt.Errorf("end month %q: %w", g.cfg.EndMonth, err)
	}
	n := max(g.cfg.Months, 1)
	out := make([]string, n)
	for i := range n {
		out[i] = end.AddDate(0, i-n+1, 0).Format(monthLayout)
	}
	return out, nil
}

// Generate builds employees and one measurement per employee, active
// criterion and month, minus the configured gaps.
func (g *Generator) Generate(criteria []Criterion) (*Dataset, error) {
	months, err := g.Months()
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Employees: make([]Employee, g.cfg.Employees)}
	skill := make([]float64, g.cfg.Employees)
	for i := range ds.Employees {
		ds.Employees[i] = g.employee()
		skill[i] = g.rng.Float64()
	}
	for _, month := range months {
		for i, e := range ds.Employees {
			for _, c := range criteria {
				if !c.Active {
					continue
				}
				if g.rng.Float64() < g.cfg.GapRatio {
					continue
				}
				ds.Measurements = append(ds.Measurements, Measurement{
					EmployeeID:  e.ID,
					CriterionID: c.ID,
					Period:      month,
					RawValue:    g.value(c, skill[i]),
				})
			}
		}
	}
	return ds, nil
}

func (g *Generator) employee() Employee {
	name := firstNames[g.rng.IntN(len(firstNames))] + " " + lastNames[g.rng.IntN(len(lastNames))]
	dept := "Geral"
	if len(g.cfg.Departments) > 0 {
		dept = g.cfg.Departments[g.rng.IntN(len(g.cfg.Departments))]
	}
	return Employee{
		ID:         uuid.NewString(),
		Name:       name,
		Department: dept,
		Position:   positions[g.rng.IntN(len(positions))],
	}
}

// value draws a raw value around the employee's skill. Higher-is-better
// criteria produce a 0..10 grade; lower-is-better ones produce an
// occurrence count that shrinks with skill.
func (g *Generator) value(c Criterion, skill float64) any {
	if g.rng.Float64() < g.cfg.NoiseRatio {
		return "n/a"
	}
	jitter := g.rng.NormFloat64() * 1.2
	if strings.EqualFold(c.Direction, "lower_better") {
		count := math.Round((1-skill)*6 + jitter)
		return math.Max(count, 0)
	}
	grade := math.Round((skill*7+2+jitter)*10) / 10
	grade = math.Min(math.Max(grade, 0), 10)
	if g.rng.IntN(10) == 0 {
		// Some sources send decimal commas.
		return strings.Replace(strconv.FormatFloat(grade, 'f', 1, 64), ".", ",", 1)
	}
	return grade
}

// Batches splits ms into slices of at most size elements.
func Batches(ms []Measurement, size int) [][]Measurement {
	if size <= 0 {
		size = len(ms)
	}
	var out [][]Measurement
	for start := 0; start < len(ms); start += size {
		end := min(start+size, len(ms))
		out = append(out, ms[start:end])
	}
	return out
}
