package writer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mark3labs/raml2go/internal/generate"
	"github.com/mark3labs/raml2go/internal/writer"
)

var units = []generate.Unit{
	{Kind: generate.KindController, Name: "example.com/shop/controllers.ItemsController", Path: "controllers/items.go", Source: []byte("package controllers\n")},
	{Kind: generate.KindBody, Name: "example.com/shop/models.Item", Path: "models/item.go", Source: []byte("package models\n")},
}

func TestResolve(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000123)
	tests := []struct {
		name      string
		root      string
		timestamp bool
		want      string
	}{
		{name: "Plain", root: "out/gen", want: "out/gen"},
		{name: "Timestamp", root: "out/gen", timestamp: true, want: "out/gen1700000000123"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := writer.Resolve(tt.root, tt.timestamp, now); got != tt.want {
				t.Errorf("Resolve(%q, %v) = %q, want %q", tt.root, tt.timestamp, got, tt.want)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "gen")
	written, err := writer.Write(context.Background(), dir, units, writer.Options{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if diff := cmp.Diff(writer.Plan(dir, units), written); diff != "" {
		t.Errorf("written files mismatch (-plan +written):\n%s", diff)
	}
	for _, u := range units {
		got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(u.Path)))
		if err != nil {
			t.Fatalf("read %s: %v", u.Path, err)
		}
		if string(got) != string(u.Source) {
			t.Errorf("%s = %q, want %q", u.Path, got, u.Source)
		}
	}
	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Join(dir, "models"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("models holds %d entries, want 1", len(entries))
	}
}

func TestWrite_NonEmptyDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := writer.Write(context.Background(), dir, units, writer.Options{})
	if !errors.Is(err, writer.ErrNotEmpty) {
		t.Fatalf("Write error = %v, want ErrNotEmpty", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "models")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("refused write still created files")
	}

	if _, err := writer.Write(context.Background(), dir, units, writer.Options{Force: true}); err != nil {
		t.Fatalf("Write with force: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "models", "item.go")); err != nil {
		t.Errorf("forced write: %v", err)
	}
}

func TestWrite_NotADirectory(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := writer.Write(context.Background(), file, units, writer.Options{Force: true}); err == nil {
		t.Fatal("Write into a regular file succeeded")
	}
}

func TestWrite_DryRun(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "gen")
	planned, err := writer.Write(context.Background(), dir, units, writer.Options{DryRun: true})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(planned) != len(units) {
		t.Errorf("planned %v, want %d files", planned, len(units))
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run created %s", dir)
	}
}

func TestWrite_CollectsEveryFailure(t *testing.T) {
	t.Parallel()

	bad := []generate.Unit{
		{Name: "escape", Path: "../escape.go", Source: []byte("x")},
		units[1],
		{Name: "absolute", Path: "/abs.go", Source: []byte("x")},
	}
	dir := filepath.Join(t.TempDir(), "gen")
	written, err := writer.Write(context.Background(), dir, bad, writer.Options{})

	if diff := cmp.Diff([]string{filepath.Join(dir, "models", "item.go")}, written); diff != "" {
		t.Errorf("written mismatch (-want +got):\n%s", diff)
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		t.Fatalf("Write error = %v, want joined errors", err)
	}
	var names []string
	for _, e := range joined.Unwrap() {
		var we *writer.ArtifactWriteError
		if !errors.As(e, &we) {
			t.Fatalf("error %v is not an ArtifactWriteError", e)
		}
		names = append(names, we.Unit)
	}
	if diff := cmp.Diff([]string{"escape", "absolute"}, names); diff != "" {
		t.Errorf("failed units mismatch (-want +got):\n%s", diff)
	}
}
