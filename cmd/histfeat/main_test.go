package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/dataset"
)

func writeJob(t *testing.T) (string, dataset.DataDir) {
	t.Helper()
	root := t.TempDir()
	dir := dataset.NewDataDir(root)
	if err := os.MkdirAll(dir.InputDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	buys := []core.Event{
		{ClientID: 7, Timestamp: ts, Fields: map[string]any{"sku": int64(1)}},
		{ClientID: 8, Timestamp: ts.Add(time.Hour), Fields: map[string]any{"sku": int64(1)}},
	}
	if err := dataset.WriteEvents(dir.EventFile(core.EventProductBuy), core.EventProductBuy, buys); err != nil {
		t.Fatalf("write events: %v", err)
	}
	cat, price, name := int64(2), int64(10), "[0 1]"
	if err := dataset.WriteProperties(dir.PropertiesFile, []dataset.PropertyRow{
		{SKU: 1, Category: &cat, Price: &price, Name: &name},
	}); err != nil {
		t.Fatalf("write properties: %v", err)
	}

	cfg := fmt.Sprintf(`
data:
  input_dir: %s
  target_dir: %s
  properties_file: %s
top_n: 2
num_days: [1]
metrics_file: %s
calculators:
  - type: calculator.stats
    event_type: product_buy
    config:
      columns: [category]
`, dir.InputDir, dir.TargetDir, dir.PropertiesFile, filepath.Join(root, "histfeat.prom"))
	path := filepath.Join(root, "job.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, dir
}

func TestApp_GenerateWithRefit(t *testing.T) {
	cfgPath, dir := writeJob(t)
	args := []string{"histfeat", "--config", cfgPath, "--log-level", "warn", "--workers", "2", "generate", "--refit"}
	if err := App().Run(context.Background(), args); err != nil {
		t.Fatalf("run: %v", err)
	}

	m, err := dataset.ReadEmbeddings(dir.TargetFile("embeddings.parquet"))
	if err != nil {
		t.Fatalf("ReadEmbeddings: %v", err)
	}
	if len(m.ClientIDs) != 2 {
		t.Fatalf("expected 2 clients, got %v", m.ClientIDs)
	}
	// [total, d1.category=2]
	for i, row := range m.Rows {
		if len(row) != 2 || row[0] != 1 || row[1] != 1 {
			t.Errorf("client %d: unexpected row %v", m.ClientIDs[i], row)
		}
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(cfgPath), "histfeat.prom"))
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(data), "histfeat_clients_written_total 2") {
		t.Errorf("metrics textfile missing clients_written_total:\n%s", data)
	}
}

func TestApp_GenerateWithoutFit(t *testing.T) {
	cfgPath, _ := writeJob(t)
	args := []string{"histfeat", "--config", cfgPath, "--log-level", "warn", "generate"}
	if err := App().Run(context.Background(), args); err == nil {
		t.Fatal("expected error when fit state has not been written")
	}
}

func TestApp_FitThenGenerate(t *testing.T) {
	cfgPath, dir := writeJob(t)
	base := []string{"histfeat", "--config", cfgPath, "--log-level", "warn"}
	if err := App().Run(context.Background(), append(base, "fit")); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if _, err := os.Stat(dir.TargetFile("fit_state.yaml")); err != nil {
		t.Fatalf("fit state missing: %v", err)
	}
	if err := App().Run(context.Background(), append(base, "generate")); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := os.Stat(dir.TargetFile("feature_meta.json")); err != nil {
		t.Fatalf("metadata missing: %v", err)
	}
}

func TestApp_BadConfig(t *testing.T) {
	args := []string{"histfeat", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "fit"}
	if err := App().Run(context.Background(), args); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestApp_Lookup(t *testing.T) {
	cfgPath, _ := writeJob(t)
	f, err := os.OpenFile(cfgPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("output:\n  store:\n    type: memory\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	base := []string{"histfeat", "--config", cfgPath, "--log-level", "warn"}
	if err := App().Run(context.Background(), append(base, "generate", "--refit")); err != nil {
		t.Fatalf("generate: %v", err)
	}

	var buf bytes.Buffer
	app := App()
	app.Writer = &buf
	if err := app.Run(context.Background(), append(base, "lookup", "7", "99")); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	var res struct {
		ClientID int64              `json:"client_id"`
		Features map[string]float64 `json:"features"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &res); err != nil {
		t.Fatalf("decode %q: %v", lines[1], err)
	}
	if res.ClientID != 99 || len(res.Features) != 2 {
		t.Errorf("lookup result = %+v", res)
	}

	if err := App().Run(context.Background(), append(base, "lookup", "abc")); err == nil {
		t.Error("expected error for non-numeric client id")
	}
}
