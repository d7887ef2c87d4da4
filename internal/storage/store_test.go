package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/modrob/internal/dynamo"
	"github.com/san-kum/modrob/internal/logging/logtest"
)

func sampleResult() *dynamo.Result {
	return &dynamo.Result{
		States: []dynamo.State{
			{0.1, 0.2, 0, 0},
			{0.1000001, 0.19, 0.001, -0.1},
			{0.1000004, 0.18, 0.003, -0.2},
		},
		Controls: []dynamo.Control{
			{1.5, -2},
			{1.25, -1.75},
		},
		Times:       []float64{0, 0.01, 0.02},
		StepsTaken:  2,
		EnergyDrift: 0.003,
		Metrics:     map[string]float64{"control_effort": 2.4},
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	st := New(t.TempDir(), nil)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return st
}

func TestStoreSaveLoad(t *testing.T) {
	st := newStore(t)
	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return stamp }

	result := sampleResult()
	result.Errors = []error{errors.New("boom")}
	runID, err := st.Save(RunMetadata{Arm: "planar2", Joints: 2, Dt: 0.01, Duration: 0.02, Substeps: 4, Integrator: "rk4", Controller: "pd"}, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	want := &RunMetadata{
		ID:          runID,
		Arm:         "planar2",
		Joints:      2,
		Timestamp:   stamp,
		Dt:          0.01,
		Duration:    0.02,
		Substeps:    4,
		Integrator:  "rk4",
		Controller:  "pd",
		StepsTaken:  2,
		EnergyDrift: 0.003,
		Metrics:     map[string]float64{"control_effort": 2.4},
		Errors:      []string{"boom"},
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if diff := cmp.Diff(result.States, states); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(result.Times, times); diff != "" {
		t.Errorf("times mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreCSVLayout(t *testing.T) {
	st := newStore(t)
	runID, err := st.Save(RunMetadata{Arm: "planar2", Joints: 2}, sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(st.baseDir, runID, "states.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "time,q0,q1,dq0,dq1,tau0,tau1\n" +
		"0,0.1,0.2,0,0,1.5,-2\n" +
		"0.01,0.1000001,0.19,0.001,-0.1,1.25,-1.75\n" +
		"0.02,0.1000004,0.18,0.003,-0.2,,\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreList(t *testing.T) {
	logger, logs := logtest.NewObservedLogger()
	st := New(t.TempDir(), logger)
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, arm := range []string{"ur5", "planar2"} {
		at := base.Add(time.Duration(i) * time.Minute)
		st.now = func() time.Time { return at }
		if _, err := st.Save(RunMetadata{Arm: arm, Joints: 2}, sampleResult()); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(st.baseDir, "broken"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	var arms []string
	for _, r := range runs {
		arms = append(arms, r.Arm)
	}
	if diff := cmp.Diff([]string{"ur5", "planar2"}, arms); diff != "" {
		t.Errorf("run order mismatch (-want +got):\n%s", diff)
	}
	if n := logs.FilterMessage("skipping unreadable run").Len(); n != 1 {
		t.Errorf("expected one warning for the broken run, got %d", n)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"), nil)
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := newStore(t)
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error")
	}
	if _, _, err := st.LoadStates("nope"); err == nil {
		t.Error("expected error")
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := RunMetadata{Arm: "ur5", Integrator: "euler", Controller: "tracker", Dt: 0.01, Duration: 0.02}
	if err := ExportJSON(&buf, meta, sampleResult()); err != nil {
		t.Fatal(err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(NewExportData(meta, sampleResult()), got); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}
}

func TestExportJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSONFile(path, RunMetadata{Arm: "ur5"}, sampleResult()); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("expected a non-empty export, got %v", err)
	}
}

func TestStoreDropsNonFiniteMetrics(t *testing.T) {
	st := newStore(t)
	result := sampleResult()
	result.Metrics["tracking_error"] = math.NaN()
	result.Metrics["energy"] = math.Inf(1)

	runID, err := st.Save(RunMetadata{Arm: "planar2", Joints: 2}, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]float64{"control_effort": 2.4}, meta.Metrics); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, RunMetadata{Arm: "planar2"}, result); err != nil {
		t.Fatalf("export failed: %v", err)
	}
}

func TestWriteFileReportsCloseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.csv")
	err := writeFile(path, func(w io.Writer) error {
		return w.(*os.File).Close()
	})
	if !errors.Is(err, os.ErrClosed) {
		t.Errorf("expected the second close to fail with os.ErrClosed, got %v", err)
	}

	err = writeFile(filepath.Join(t.TempDir(), "missing", "states.csv"), func(io.Writer) error { return nil })
	if err == nil {
		t.Error("expected an error creating a file in a missing directory")
	}
}
