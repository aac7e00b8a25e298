// Package ingestwatch scans a drop directory for donation spreadsheets,
// ingests each file and runs the resulting report jobs against the same
// database and storage as the API server. Optional watch mode picks up new
// files as they arrive.
package ingestwatch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"charityreports/pkg/entitystore"
	"charityreports/pkg/ingest"
	"charityreports/pkg/jobs"
	"charityreports/pkg/render"
	"charityreports/pkg/reports"
	"charityreports/pkg/storage"
)

// Config controls one scan/watch run.
type Config struct {
	Dir     string
	Watch   bool
	Workers int
	Verbose bool
}

type runner struct {
	imp     *ingest.Importer
	queue   *jobs.Queue
	dir     string
	verbose bool
}

// Run ingests every data file in cfg.Dir, then optionally keeps watching the
// directory until ctx is cancelled. Report jobs are executed in-process.
func Run(ctx context.Context, cfg Config) error {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return fmt.Errorf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	store, err := openStore(ctx)
	if err != nil {
		return err
	}

	es := entitystore.New(gdb)
	renderer := &render.Renderer{Logo: os.Getenv("REPORT_LOGO")}
	proc := &reports.Processor{Donors: es, Reports: es, Artifacts: store, Render: renderer.Render}
	queue := jobs.NewQueue(jobs.NewGormStore(gdb), proc.Process, cfg.Workers, 1024)
	queue.Start(ctx)

	r := &runner{
		imp:     &ingest.Importer{Store: es},
		queue:   queue,
		dir:     cfg.Dir,
		verbose: cfg.Verbose,
	}

	files := listDataFiles(cfg.Dir)
	log.Printf("Scanning %d files in %s", len(files), cfg.Dir)
	for _, name := range files {
		r.ingestFile(ctx, name)
	}

	if !cfg.Watch {
		queue.Close()
		return nil
	}
	err = r.watch(ctx)
	queue.Close()
	return err
}

func openStore(ctx context.Context) (storage.Storage, error) {
	if strings.EqualFold(os.Getenv("STORAGE_BACKEND"), "gcs") {
		bucket := os.Getenv("GCS_BUCKET")
		if bucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET must be set when STORAGE_BACKEND=gcs")
		}
		return storage.NewGCS(ctx, bucket)
	}
	base := os.Getenv("REPORTS_BASE")
	if base == "" {
		base = "reports"
	}
	return storage.NewLocal(base)
}

func (r *runner) logV(format string, args ...any) {
	if r.verbose {
		log.Printf(format, args...)
	}
}

func (r *runner) ingestFile(ctx context.Context, name string) {
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		log.Printf("read %s failed: %v", name, err)
		return
	}
	donorIDs, err := r.imp.Import(ctx, data, name)
	if err != nil {
		log.Printf("ingest %s failed: %v", name, err)
		return
	}
	for _, donorID := range donorIDs {
		jobID, err := r.queue.Enqueue(ctx, donorID)
		if err != nil {
			log.Printf("enqueue report for donor %s failed: %v", donorID, err)
			continue
		}
		r.logV("queued report job %s for donor %s", jobID, donorID)
	}
	log.Printf("ingested %s: %d donors queued", name, len(donorIDs))
}

// watch debounces create/write events until a file has been stable for a
// moment, then ingests it. Guards against half-written uploads.
func (r *runner) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(r.dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", r.dir)

	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				name := filepath.Base(ev.Name)
				if isDataFile(name) {
					pending[name] = time.Now()
				}
			}
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > 300*time.Millisecond { // stable
					delete(pending, name)
					r.ingestFile(ctx, name)
				}
			}
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", werr)
		}
	}
}

func listDataFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isDataFile(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isDataFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}
