package metric

import (
	"context"
	"testing"
	"time"
)

func TestCounterMetricPoint(t *testing.T) {
	counter := &CounterMetric{
		RowMetric: RowMetric{Name: "renderrush_segments_success", Tags: Tags{"mode": "parallel"}},
		Counter:   6,
	}

	point := counter.Metric()

	if point.Name() != "renderrush_segments_success" {
		t.Errorf("name = %q", point.Name())
	}

	if got := tagsMap(point.TagList()); got["mode"] != "parallel" {
		t.Errorf("tags = %v", got)
	}

	if got := fieldsMap(point.FieldList()); got["counter"] != int64(6) {
		t.Errorf("fields = %v", got)
	}
}

func TestGaugeMetricPoint(t *testing.T) {
	gauge := &GaugeMetric{
		RowMetric: RowMetric{Name: "renderrush_bench_speedup", Tags: Tags{"workers": "4"}},
		Gauge:     3.2,
	}

	if got := fieldsMap(gauge.Metric().FieldList()); got["gauge"] != 3.2 {
		t.Errorf("fields = %v", got)
	}
}

func TestDurationMetricPoint(t *testing.T) {
	duration := &DurationMetric{
		RowMetric: RowMetric{Name: "renderrush_run_duration"},
		Duration:  1500 * time.Millisecond,
	}

	if got := fieldsMap(duration.Metric().FieldList()); got["duration_ms"] != int64(1500) {
		t.Errorf("fields = %v", got)
	}
}

func TestInfluxBuffersAddedMetrics(t *testing.T) {
	client := &influx{}

	gauge := &GaugeMetric{
		RowMetric: RowMetric{Name: "renderrush_bench_speedup", Tags: Tags{"workers": "2"}},
		Gauge:     1.8,
	}

	client.Add(gauge)
	client.Add(&CounterMetric{
		RowMetric: RowMetric{Name: "renderrush_segments_failed"},
		Counter:   1,
	})

	points := client.snapshot()

	if len(points) != 2 {
		t.Fatalf("snapshot holds %d points, want 2", len(points))
	}

	if points[0].Name() != "renderrush_bench_speedup" {
		t.Errorf("first point = %q", points[0].Name())
	}

	// Registered metrics are re-rendered at their current value.
	gauge.Gauge = 3.6

	if got := fieldsMap(client.snapshot()[0].FieldList()); got["gauge"] != 3.6 {
		t.Errorf("fields = %v", got)
	}
}

func TestInfluxTickerStopsOnCancel(t *testing.T) {
	client := &influx{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})

	go func() {
		client.Ticker(ctx, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Ticker kept running after cancel")
	}
}
