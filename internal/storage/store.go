// Package storage persists simulation runs under a data directory, one
// subdirectory per run holding metadata.json and trend.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/avolkov/looplab/internal/scenario"
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
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Algorithm   string             `json:"algorithm"`
	Kp          float64            `json:"kp"`
	Ki          float64            `json:"ki"`
	Kd          float64            `json:"kd"`
	Gain        float64            `json:"gain"`
	Tau         float64            `json:"tau"`
	DeadTime    float64            `json:"dead_time"`
	Disturbance float64            `json:"disturbance"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Trend is one run's recorded time series.
type Trend struct {
	Times     []float64
	Setpoints []float64
	PVs       []float64
	MVs       []float64
}

// Save writes one run to disk and returns its id.
func (s *Store) Save(cfg scenario.Config, result *scenario.Result) (string, error) {
	name := cfg.Name
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Name:        name,
		Timestamp:   time.Now(),
		Seed:        cfg.Loop.Seed,
		Dt:          cfg.Loop.Dt,
		Duration:    cfg.Duration,
		Algorithm:   cfg.Loop.Algorithm.String(),
		Kp:          cfg.Loop.Kp,
		Ki:          cfg.Loop.Ki,
		Kd:          cfg.Loop.Kd,
		Gain:        cfg.Loop.Gain,
		Tau:         cfg.Loop.TimeConstant,
		DeadTime:    cfg.Loop.DeadTime,
		Disturbance: cfg.Loop.Disturbance,
		Metrics:     result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trend.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"time", "sp", "pv", "mv"}); err != nil {
		return "", err
	}

	for i := range result.Times {
		row := []string{
			strconv.FormatFloat(result.Times[i], 'f', 6, 64),
			strconv.FormatFloat(result.Setpoints[i], 'f', 6, 64),
			strconv.FormatFloat(result.PVs[i], 'f', 6, 64),
			strconv.FormatFloat(result.MVs[i], 'f', 6, 64),
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

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrend reads a run's recorded time series back from trend.csv.
func (s *Store) LoadTrend(runID string) (*Trend, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trend.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	trend := &Trend{}
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 4 {
			continue
		}

		vals := make([]float64, 4)
		ok := true
		for j := 0; j < 4; j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}

		trend.Times = append(trend.Times, vals[0])
		trend.Setpoints = append(trend.Setpoints, vals[1])
		trend.PVs = append(trend.PVs, vals[2])
		trend.MVs = append(trend.MVs, vals[3])
	}

	return trend, nil
}
