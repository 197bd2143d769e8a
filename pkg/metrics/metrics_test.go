package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.FacetRunsTotal == nil {
		t.Error("FacetRunsTotal not initialized")
	}
	if r.CandidatesTotal == nil {
		t.Error("CandidatesTotal not initialized")
	}
	if r.TablesExportedTotal == nil {
		t.Error("TablesExportedTotal not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordFacetRun(t *testing.T) {
	r := NewRegistry()

	r.RecordFacetRun("categories", "success", 100*time.Millisecond)
	r.RecordFacetRun("categories", "success", 200*time.Millisecond)
	r.RecordFacetRun("categories", "error", 5*time.Millisecond)

	counter, err := r.FacetRunsTotal.GetMetricWithLabelValues("categories", "success")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Success counter = %v, want 2", metric.Counter.GetValue())
	}
}

func TestRecordFacetResult(t *testing.T) {
	r := NewRegistry()
	r.RecordFacetResult("refund_patterns", 40, 7, 9, 3)

	gauge, err := r.FacetRules.GetMetricWithLabelValues("refund_patterns")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := gauge.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 3 {
		t.Errorf("Rules gauge = %v, want 3", metric.Gauge.GetValue())
	}
}

func TestRecordMiningLevels(t *testing.T) {
	r := NewRegistry()
	r.RecordMiningLevels("categories", []LevelCounts{
		{Generated: 10, Counted: 10, Frequent: 6},
		{Generated: 15, Pruned: 0, Counted: 15, Frequent: 4},
		{Generated: 4, Pruned: 3, Counted: 1, Frequent: 0},
	})

	counter, err := r.CandidatesTotal.GetMetricWithLabelValues("categories", "pruned")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 3 {
		t.Errorf("Pruned = %v, want 3", metric.Counter.GetValue())
	}

	levels, _ := r.MiningLevels.GetMetricWithLabelValues("categories")
	if err := levels.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 3 {
		t.Errorf("Levels = %v, want 3", metric.Gauge.GetValue())
	}
}

func TestRecordExport(t *testing.T) {
	r := NewRegistry()
	r.RecordExport("dir", "rules_categories", "success", 12)
	r.RecordExport("s3", "rules_categories", "error", 12)

	var metric dto.Metric
	gauge, _ := r.TableRows.GetMetricWithLabelValues("rules_categories")
	if err := gauge.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 12 {
		t.Errorf("TableRows = %v, want 12", metric.Gauge.GetValue())
	}

	counter, _ := r.TablesExportedTotal.GetMetricWithLabelValues("s3", "error")
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("s3 errors = %v, want 1", metric.Counter.GetValue())
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.RecordIngest(1000, 4)
	r.RecordTransitions(12, 80)
	r.RecordJob(2*time.Second, true)
	r.SampleRuntime()

	path := filepath.Join(t.TempDir(), "basket.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	out := string(data)
	for _, name := range []string{"basket_fact_rows 1000", "basket_fact_rows_dropped 4", "basket_transitions 80", "basket_goroutines"} {
		if !strings.Contains(out, name) {
			t.Errorf("textfile missing %q", name)
		}
	}
}
