package storage

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/san-kum/modrob/internal/dynamo"
)

type ExportData struct {
	Arm        string             `json:"arm"`
	Integrator string             `json:"integrator"`
	Controller string             `json:"controller"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	States     []dynamo.State     `json:"states"`
	Controls   []dynamo.Control   `json:"controls"`
	Metrics    map[string]float64 `json:"metrics"`
}

func NewExportData(meta RunMetadata, result *dynamo.Result) ExportData {
	metrics, _ := finiteMetrics(result.Metrics)
	return ExportData{
		Arm:        meta.Arm,
		Integrator: meta.Integrator,
		Controller: meta.Controller,
		Dt:         meta.Dt,
		Duration:   meta.Duration,
		Steps:      result.StepsTaken,
		Times:      result.Times,
		States:     result.States,
		Controls:   result.Controls,
		Metrics:    metrics,
	}
}

// ExportJSON writes the whole run as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(NewExportData(meta, result)), "export run")
}

func ExportJSONFile(path string, meta RunMetadata, result *dynamo.Result) error {
	return writeFile(path, func(w io.Writer) error {
		return ExportJSON(w, meta, result)
	})
}
