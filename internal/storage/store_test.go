package storage

import (
	"strings"
	"testing"

	"github.com/sereven/lmfit/internal/lm"
)

func testResult() *lm.Result {
	return &lm.Result{
		Method:      "lm-trust-region/cholesky",
		X:           []float64{2.5, 1.3, 0.5},
		SSR:         3.2e-17,
		Iter:        14,
		Converged:   true,
		GrConverged: true,
		XTol:        1e-8,
		FTol:        1e-8,
		GrTol:       1e-8,
		FCalls:      15,
		GCalls:      12,
		MulCalls:    42,
		Trace: lm.Trace{
			{Iter: 1, SSR: 4.1, MaxAbsGr: 12.5, Aux: map[string]float64{"delta": 30, "rho": 0.95, "accepted": 1}},
			{Iter: 2, SSR: 0.8, MaxAbsGr: 3.1, Aux: map[string]float64{"delta": 90, "rho": 0.99, "accepted": 1}},
			{Iter: 3, SSR: 0.8, MaxAbsGr: 3.1, Aux: map[string]float64{"delta": 45, "rho": -2.4, "accepted": 0}},
		},
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	res := testResult()
	runID, err := store.Save("expfit", res)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(runID, "expfit_") {
		t.Errorf("runID = %s, want expfit_ prefix", runID)
	}

	meta, err := store.Load(runID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if meta.ID != runID {
		t.Errorf("ID = %s, want %s", meta.ID, runID)
	}
	if meta.Problem != "expfit" {
		t.Errorf("Problem = %s", meta.Problem)
	}
	if meta.Method != res.Method {
		t.Errorf("Method = %s", meta.Method)
	}
	if meta.SSR != res.SSR || meta.Iter != res.Iter {
		t.Errorf("SSR/Iter = %g/%d, want %g/%d", meta.SSR, meta.Iter, res.SSR, res.Iter)
	}
	if !meta.Converged || !meta.GrConverged || meta.XConverged {
		t.Errorf("flags = %v/%v/%v", meta.Converged, meta.GrConverged, meta.XConverged)
	}
	if len(meta.X) != 3 || meta.X[0] != 2.5 {
		t.Errorf("X = %v", meta.X)
	}
	if meta.FCalls != 15 || meta.GCalls != 12 || meta.MulCalls != 42 {
		t.Errorf("counters = %d/%d/%d", meta.FCalls, meta.GCalls, meta.MulCalls)
	}
}

func TestLoadTrace(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	res := testResult()
	runID, err := store.Save("expfit", res)
	if err != nil {
		t.Fatal(err)
	}

	trace, err := store.LoadTrace(runID)
	if err != nil {
		t.Fatalf("LoadTrace: %v", err)
	}
	if len(trace) != len(res.Trace) {
		t.Fatalf("len(trace) = %d, want %d", len(trace), len(res.Trace))
	}

	for i, rec := range trace {
		want := res.Trace[i]
		if rec.Iter != want.Iter {
			t.Errorf("record %d: Iter = %d, want %d", i, rec.Iter, want.Iter)
		}
		if rec.SSR != want.SSR {
			t.Errorf("record %d: SSR = %g, want %g", i, rec.SSR, want.SSR)
		}
		if rec.MaxAbsGr != want.MaxAbsGr {
			t.Errorf("record %d: MaxAbsGr = %g, want %g", i, rec.MaxAbsGr, want.MaxAbsGr)
		}
		for _, key := range []string{"delta", "rho", "accepted"} {
			if rec.Aux[key] != want.Aux[key] {
				t.Errorf("record %d: %s = %g, want %g", i, key, rec.Aux[key], want.Aux[key])
			}
		}
	}
}

func TestList(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("fresh store has %d runs", len(runs))
	}

	if _, err := store.Save("linear", testResult()); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save("powell", testResult()); err != nil {
		t.Fatal(err)
	}

	runs, err = store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("len(runs) = %d, want 2", len(runs))
	}
}

func TestListMissingBaseDir(t *testing.T) {
	store := New(t.TempDir() + "/nope")
	runs, err := store.List()
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("len(runs) = %d, want 0", len(runs))
	}
}

func TestLoadUnknownRun(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Load("absent_123"); err == nil {
		t.Error("expected error for unknown run")
	}
	if _, err := store.LoadTrace("absent_123"); err == nil {
		t.Error("expected error for unknown run trace")
	}
}
