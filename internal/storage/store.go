// Package storage persists fit runs as a metadata.json plus a trace.csv
// per run directory.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sereven/lmfit/internal/lm"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Problem   string    `json:"problem"`
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`

	XTol  float64 `json:"xtol"`
	FTol  float64 `json:"ftol"`
	GrTol float64 `json:"grtol"`

	X           []float64 `json:"x"`
	SSR         float64   `json:"ssr"`
	Iter        int       `json:"iter"`
	Converged   bool      `json:"converged"`
	XConverged  bool      `json:"x_converged"`
	FConverged  bool      `json:"f_converged"`
	GrConverged bool      `json:"gr_converged"`

	FCalls   int `json:"f_calls"`
	GCalls   int `json:"g_calls"`
	MulCalls int `json:"mul_calls"`
}

var traceHeader = []string{"iter", "ssr", "maxabs_gr", "delta", "rho", "accepted"}

func (s *Store) Save(problem string, res *lm.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", problem, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Problem:     problem,
		Method:      res.Method,
		Timestamp:   time.Now(),
		XTol:        res.XTol,
		FTol:        res.FTol,
		GrTol:       res.GrTol,
		X:           res.X,
		SSR:         res.SSR,
		Iter:        res.Iter,
		Converged:   res.Converged,
		XConverged:  res.XConverged,
		FConverged:  res.FConverged,
		GrConverged: res.GrConverged,
		FCalls:      res.FCalls,
		GCalls:      res.GCalls,
		MulCalls:    res.MulCalls,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "trace.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(traceHeader); err != nil {
		return "", err
	}

	for _, rec := range res.Trace {
		row := []string{
			strconv.Itoa(rec.Iter),
			strconv.FormatFloat(rec.SSR, 'e', 12, 64),
			strconv.FormatFloat(rec.MaxAbsGr, 'e', 12, 64),
			strconv.FormatFloat(rec.Aux["delta"], 'e', 12, 64),
			strconv.FormatFloat(rec.Aux["rho"], 'e', 12, 64),
			strconv.FormatFloat(rec.Aux["accepted"], 'f', 0, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadTrace(runID string) (lm.Trace, error) {
	csvPath := filepath.Join(s.baseDir, runID, "trace.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return lm.Trace{}, nil
	}

	trace := make(lm.Trace, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < len(traceHeader) {
			continue
		}

		iter, err := strconv.Atoi(record[0])
		if err != nil {
			continue
		}

		vals := make([]float64, 0, 5)
		ok := true
		for j := 1; j < len(traceHeader); j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				ok = false
				break
			}
			vals = append(vals, v)
		}
		if !ok {
			continue
		}

		trace = append(trace, lm.Record{
			Iter:     iter,
			SSR:      vals[0],
			MaxAbsGr: vals[1],
			Aux: map[string]float64{
				"delta":    vals[2],
				"rho":      vals[3],
				"accepted": vals[4],
			},
		})
	}

	return trace, nil
}
