package storage

import (
	"encoding/json"
	"io"

	"github.com/avolkov/looplab/internal/scenario"
)

type ExportData struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Algorithm string             `json:"algorithm"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Samples   int                `json:"samples"`
	Times     []float64          `json:"times"`
	Setpoints []float64          `json:"setpoints"`
	PVs       []float64          `json:"pvs"`
	MVs       []float64          `json:"mvs"`
	Metrics   map[string]float64 `json:"metrics"`
}

// ExportJSON writes one run's metadata and trend as indented JSON.
func ExportJSON(w io.Writer, meta *RunMetadata, trend *Trend) error {
	data := ExportData{
		ID:        meta.ID,
		Name:      meta.Name,
		Algorithm: meta.Algorithm,
		Dt:        meta.Dt,
		Duration:  meta.Duration,
		Samples:   len(trend.Times),
		Times:     trend.Times,
		Setpoints: trend.Setpoints,
		PVs:       trend.PVs,
		MVs:       trend.MVs,
		Metrics:   meta.Metrics,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportResultJSON writes a fresh, unsaved result as indented JSON.
func ExportResultJSON(w io.Writer, cfg scenario.Config, result *scenario.Result) error {
	data := ExportData{
		Name:      cfg.Name,
		Algorithm: cfg.Loop.Algorithm.String(),
		Dt:        cfg.Loop.Dt,
		Duration:  cfg.Duration,
		Samples:   len(result.Times),
		Times:     result.Times,
		Setpoints: result.Setpoints,
		PVs:       result.PVs,
		MVs:       result.MVs,
		Metrics:   result.Metrics,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
