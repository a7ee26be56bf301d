package storage

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestExportJSON(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	cfg, result := testRun()
	runID, err := store.Save(cfg, result)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	meta, err := store.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	trend, err := store.LoadTrend(runID)
	if err != nil {
		t.Fatalf("load trend: %v", err)
	}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, meta, trend); err != nil {
		t.Fatalf("export: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if data.ID != runID || data.Samples != 3 {
		t.Errorf("export = id %s with %d samples, want %s with 3", data.ID, data.Samples, runID)
	}
	if data.Metrics["iae"] != 3.95 {
		t.Errorf("export metrics = %+v", data.Metrics)
	}
}

func TestExportResultJSON(t *testing.T) {
	cfg, result := testRun()

	var buf bytes.Buffer
	if err := ExportResultJSON(&buf, cfg, result); err != nil {
		t.Fatalf("export: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if data.Name != "step" || data.Samples != 3 {
		t.Errorf("export = %s with %d samples, want step with 3", data.Name, data.Samples)
	}
}
