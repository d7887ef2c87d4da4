// Package storage persists simulation runs as a metadata document and a CSV
// of sampled states and torques, one directory per run.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/san-kum/modrob/internal/dynamo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Store struct {
	baseDir string
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func New(baseDir string, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{baseDir: baseDir, logger: logger, now: time.Now}
}

func (s *Store) Init() error {
	return errors.Wrap(os.MkdirAll(s.baseDir, 0755), "create run store")
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Arm         string             `json:"arm"`
	Joints      int                `json:"joints"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Substeps    int                `json:"substeps"`
	Integrator  string             `json:"integrator"`
	Controller  string             `json:"controller"`
	StepsTaken  int                `json:"steps_taken"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
	Errors      []string           `json:"errors,omitempty"`
}

// Save writes meta and the sampled run under a fresh ID. ID, Timestamp,
// StepsTaken, EnergyDrift, Metrics and Errors are filled from the result.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := s.now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Arm, now.UnixNano())
	meta.Timestamp = now
	meta.StepsTaken = result.StepsTaken
	meta.EnergyDrift = result.EnergyDrift
	var dropped []string
	meta.Metrics, dropped = finiteMetrics(result.Metrics)
	if len(dropped) > 0 {
		s.logger.Warnw("dropping non-finite metrics", "metrics", dropped)
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrap(err, "create run directory")
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, "states.csv"), meta.Joints, result); err != nil {
		return "", err
	}

	s.logger.Debugw("saved run", "id", meta.ID, "samples", len(result.States))
	return meta.ID, nil
}

// finiteMetrics copies metrics without NaN or Inf values, which JSON cannot
// encode, and returns the names it left out.
func finiteMetrics(metrics map[string]float64) (map[string]float64, []string) {
	out := make(map[string]float64, len(metrics))
	var dropped []string
	for name, v := range metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			dropped = append(dropped, name)
			continue
		}
		out[name] = v
	}
	sort.Strings(dropped)
	return out, dropped
}

// writeFile creates path and hands it to write. Errors from closing the file
// are returned alongside any write error.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", filepath.Base(path))
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))
	return write(f)
}

func writeJSON(path string, v interface{}) error {
	return writeFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(v), "encode metadata")
	})
}

func header(joints int) []string {
	cols := []string{"time"}
	for _, prefix := range []string{"q", "dq", "tau"} {
		for i := 0; i < joints; i++ {
			cols = append(cols, fmt.Sprintf("%s%d", prefix, i))
		}
	}
	return cols
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeStates writes one row per sample. The torque columns hold the control
// applied over the following step and are empty on the final sample.
func writeStates(path string, joints int, result *dynamo.Result) error {
	return writeFile(path, func(out io.Writer) error {
		return encodeStates(out, joints, result)
	})
}

func encodeStates(out io.Writer, joints int, result *dynamo.Result) error {
	w := csv.NewWriter(out)
	if err := w.Write(header(joints)); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i, x := range result.States {
		row := []string{format(result.Times[i])}
		for _, v := range x {
			row = append(row, format(v))
		}
		for j := 0; j < joints; j++ {
			if i < len(result.Controls) {
				row = append(row, format(result.Controls[i][j]))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "write states")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush states")
}

// List returns the metadata of every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrap(err, "list runs")
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			s.logger.Warnw("skipping unreadable run", "dir", entry.Name(), "error", err)
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "load run %s", runID)
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decode run %s", runID)
	}
	return &meta, nil
}

// LoadStates reads back the [θ; θ̇] samples of a run and their times. Torque
// columns are skipped.
func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open states of %s", runID)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read states of %s", runID)
	}
	if len(records) < 2 {
		return []dynamo.State{}, []float64{}, nil
	}

	width := 0
	for _, col := range records[0][1:] {
		if strings.HasPrefix(col, "tau") {
			break
		}
		width++
	}

	states := make([]dynamo.State, 0, len(records)-1)
	times := make([]float64, 0, len(records)-1)
	for line, record := range records[1:] {
		values := make([]float64, width+1)
		for j := range values {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "states of %s line %d", runID, line+2)
			}
			values[j] = v
		}
		times = append(times, values[0])
		states = append(states, dynamo.State(values[1:]))
	}
	return states, times, nil
}
