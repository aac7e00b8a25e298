package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}

	path := "charity_reports/d1_alice_smith_report.pdf"
	payload := []byte("%PDF-1.4 fake")
	if err := l.Save(ctx, path, payload); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	ok, err := l.Exists(ctx, path)
	if err != nil || !ok {
		t.Fatalf("expected object to exist, ok=%v err=%v", ok, err)
	}

	rc, err := l.Open(ctx, path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, payload) {
		t.Fatalf("read back %q, want %q", got, payload)
	}

	if err := l.Delete(ctx, path); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	ok, err = l.Exists(ctx, path)
	if err != nil || ok {
		t.Fatalf("expected object gone after delete, ok=%v err=%v", ok, err)
	}
}

func TestLocalDeleteMissingIsNoop(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	if err := l.Delete(context.Background(), "nope/missing.pdf"); err != nil {
		t.Fatalf("deleting a missing object must not fail: %v", err)
	}
}

func TestLocalSaveFailureIsUploadError(t *testing.T) {
	dir := t.TempDir()
	// Block directory creation by placing a regular file where the base
	// directory should be.
	blocker := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	l := &Local{Base: blocker}
	err := l.Save(context.Background(), "sub/report.pdf", []byte("data"))
	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("expected UploadError got %v", err)
	}
	if uploadErr.Path != "sub/report.pdf" {
		t.Fatalf("unexpected path in error: %s", uploadErr.Path)
	}
}
