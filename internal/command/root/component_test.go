package root

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"renderrush/internal/history"
	"renderrush/internal/metric"
	"renderrush/internal/pipeline"
	"renderrush/internal/queue"
	"renderrush/internal/storage"
)

func testComponent(t *testing.T, dir string) *Component {
	bucketDir := filepath.Join(dir, "bucket")

	if err := os.MkdirAll(bucketDir, os.ModePerm); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	bucket, err := storage.NewLocal(context.Background(), bucketDir)

	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	return &Component{
		History: history.NewMemory(),
		Channel: &queue.Null{},
		Bucket:  bucket,
		Metric:  &metric.Null{},
	}
}

func testReport(t *testing.T, dir string, uid string) *pipeline.Report {
	output := filepath.Join(dir, "clip_grayscale_parallel.mp4")

	if err := ioutil.WriteFile(output, []byte("merged output"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	return &pipeline.Report{
		UID:          uid,
		Source:       "clip.mp4",
		Filter:       "grayscale",
		Mode:         pipeline.Parallel,
		Workers:      4,
		SegmentCount: 3,
		SuccessCount: 3,
		Elapsed:      2 * time.Second,
		OutputPath:   output,
		CreatedAt:    time.Now(),
	}
}

func TestPublishReportStoresAndUploads(t *testing.T) {
	dir, err := ioutil.TempDir("", "component")

	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}

	defer os.RemoveAll(dir)

	cmpt := testComponent(t, dir)
	report := testReport(t, dir, "run1")

	cmpt.PublishReport(report)

	stored, err := cmpt.History.Get("run1")

	if err != nil {
		t.Fatalf("report not stored: %v", err)
	}

	if stored.SuccessCount != 3 {
		t.Errorf("stored report counts = %d, want 3", stored.SuccessCount)
	}

	data, err := cmpt.Bucket.Get("run1/clip_grayscale_parallel.mp4")

	if err != nil {
		t.Fatalf("output not published: %v", err)
	}

	if string(data) != "merged output" {
		t.Errorf("published output = %q", data)
	}
}

func TestFetchOutputRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "component")

	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}

	defer os.RemoveAll(dir)

	cmpt := testComponent(t, dir)
	cmpt.PublishReport(testReport(t, dir, "run2"))

	dest := filepath.Join(dir, "fetched")
	path, err := cmpt.FetchOutput("run2", dest)

	if err != nil {
		t.Fatalf("FetchOutput: %v", err)
	}

	data, err := ioutil.ReadFile(path)

	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(data) != "merged output" {
		t.Errorf("fetched output = %q", data)
	}
}

func TestFetchOutputUnknownRun(t *testing.T) {
	dir, err := ioutil.TempDir("", "component")

	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}

	defer os.RemoveAll(dir)

	cmpt := testComponent(t, dir)

	if _, err := cmpt.FetchOutput("missing", dir); err == nil {
		t.Fatal("fetched output of an unknown run")
	}
}

func TestPruneRunRemovesReportAndArtifacts(t *testing.T) {
	dir, err := ioutil.TempDir("", "component")

	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}

	defer os.RemoveAll(dir)

	cmpt := testComponent(t, dir)
	cmpt.PublishReport(testReport(t, dir, "run3"))

	if err := cmpt.PruneRun("run3"); err != nil {
		t.Fatalf("PruneRun: %v", err)
	}

	if _, err := cmpt.History.Get("run3"); err == nil {
		t.Error("report survived prune")
	}

	if _, err := cmpt.Bucket.Get("run3/clip_grayscale_parallel.mp4"); err == nil {
		t.Error("published output survived prune")
	}
}
