package store

import (
	"math"
	"time"
)

// Scan is one persisted indexing run of a project.
type Scan struct {
	ID             string        `json:"scan_id"`
	ProjectKey     string        `json:"project_key"`
	Root           string        `json:"root"`
	RootModule     string        `json:"root_module"`
	Timestamp      time.Time     `json:"timestamp"`
	FileCount      int           `json:"file_count"`
	ModuleCount    int           `json:"module_count"`
	ClassCount     int           `json:"class_count"`
	FunctionCount  int           `json:"function_count"`
	AltCount       int           `json:"alt_count"`
	StatementCount int           `json:"statement_count"`
	Duration       time.Duration `json:"duration"`
}

// ObjectRow is one object of a persisted scan.
type ObjectRow struct {
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	Alt       bool   `json:"alt"`
	Filename  string `json:"filename"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Depth     int    `json:"depth"`
	Signature string `json:"signature,omitempty"`
}

type StatementRow struct {
	Line int    `json:"line"`
	Kind string `json:"kind"`
}

// TrendPoint compares a scan with the one before it.
type TrendPoint struct {
	Scan           Scan    `json:"scan"`
	DeltaFiles     int     `json:"delta_files"`
	DeltaClasses   int     `json:"delta_classes"`
	DeltaFunctions int     `json:"delta_functions"`
	DeltaAlts      int     `json:"delta_alts"`
	FunctionGrowth float64 `json:"function_growth_pct"`
}

// BuildTrend turns scans ordered oldest first into trend points.
func BuildTrend(scans []Scan) []TrendPoint {
	points := make([]TrendPoint, 0, len(scans))
	for i, s := range scans {
		p := TrendPoint{Scan: s}
		if i > 0 {
			prev := scans[i-1]
			p.DeltaFiles = s.FileCount - prev.FileCount
			p.DeltaClasses = s.ClassCount - prev.ClassCount
			p.DeltaFunctions = s.FunctionCount - prev.FunctionCount
			p.DeltaAlts = s.AltCount - prev.AltCount
			if prev.FunctionCount > 0 {
				p.FunctionGrowth = round2(float64(p.DeltaFunctions) / float64(prev.FunctionCount) * 100)
			}
		}
		points = append(points, p)
	}
	return points
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
