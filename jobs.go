package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"charityreports/pkg/entitystore"
	"charityreports/pkg/jobs"
	"charityreports/pkg/render"
	"charityreports/pkg/reports"
	"charityreports/pkg/storage"
)

// Shared by handlers; initialized in main.
var (
	artifacts   storage.Storage
	reportQueue *jobs.Queue
)

func reportWorkers() int {
	if v := os.Getenv("REPORT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

// reportsBaseDir returns the base directory for the local storage backend
// (configurable via REPORTS_BASE env).
func reportsBaseDir() string {
	if v := os.Getenv("REPORTS_BASE"); v != "" {
		return v
	}
	return "reports"
}

// newArtifactStore selects the storage backend from STORAGE_BACKEND.
func newArtifactStore(ctx context.Context) (storage.Storage, error) {
	switch backend := strings.ToLower(os.Getenv("STORAGE_BACKEND")); backend {
	case "", "local":
		return storage.NewLocal(reportsBaseDir())
	case "gcs":
		bucket := os.Getenv("GCS_BUCKET")
		if bucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET must be set when STORAGE_BACKEND=gcs")
		}
		return storage.NewGCS(ctx, bucket)
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", backend)
	}
}

// newReportQueue wires the report processor against the shared database and
// artifact store.
func newReportQueue() *jobs.Queue {
	es := entitystore.New(db)
	renderer := &render.Renderer{Logo: os.Getenv("REPORT_LOGO")}
	proc := &reports.Processor{
		Donors:    es,
		Reports:   es,
		Artifacts: artifacts,
		Render:    renderer.Render,
	}
	return jobs.NewQueue(jobs.NewGormStore(db), proc.Process, reportWorkers(), 256)
}
