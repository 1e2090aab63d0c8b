// Package writer places generated units on disk.
package writer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/mark3labs/raml2go/internal/generate"
)

type Options struct {
	// Force allows writing into a non-empty directory, replacing files
	// with the same names.
	Force bool
	// DryRun validates the destination and reports the plan without
	// touching the filesystem.
	DryRun bool
}

// ArtifactWriteError reports a unit that could not be written.
type ArtifactWriteError struct {
	Unit string
	Path string
	Err  error
}

func (e *ArtifactWriteError) Error() string {
	return fmt.Sprintf("writer: write %s (%s): %v", e.Path, e.Unit, e.Err)
}

func (e *ArtifactWriteError) Unwrap() error { return e.Err }

// ErrNotEmpty is returned when the output directory holds files and Force
// is off.
var ErrNotEmpty = errors.New("output directory is not empty (use --force to overwrite)")

// Resolve returns the output directory for root. With timestamp set the
// directory is root suffixed with the Unix time of now in milliseconds.
func Resolve(root string, timestamp bool, now time.Time) string {
	if !timestamp {
		return root
	}
	return root + strconv.FormatInt(now.UnixMilli(), 10)
}

// Plan lists the files Write would produce, in unit order.
func Plan(dir string, units []generate.Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = filepath.Join(dir, filepath.FromSlash(u.Path))
	}
	return out
}

// Write stores every unit below dir and returns the files written. Each
// file is written to a temporary name and renamed into place. A unit that
// fails does not stop the others; all failures are joined in the returned
// error.
func Write(ctx context.Context, dir string, units []generate.Unit, opts Options) ([]string, error) {
	log := logr.FromContextOrDiscard(ctx).WithName("writer")

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("writer: resolve output directory: %w", err)
	}
	if err := checkDir(abs, opts.Force); err != nil {
		return nil, err
	}
	if opts.DryRun {
		log.V(1).Info("dry run", "dir", abs, "files", len(units))
		return Plan(abs, units), nil
	}

	var (
		written []string
		errs    []error
	)
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		p, err := target(abs, u.Path)
		if err == nil {
			err = writeAtomic(p, u.Source)
		}
		if err != nil {
			errs = append(errs, &ArtifactWriteError{Unit: u.Name, Path: u.Path, Err: err})
			log.V(1).Info("write failed", "unit", u.Name, "path", u.Path, "error", err.Error())
			continue
		}
		written = append(written, p)
		log.V(1).Info("wrote unit", "unit", u.Name, "path", p)
	}
	return written, errors.Join(errs...)
}

func checkDir(abs string, force bool) error {
	st, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("writer: cannot access output directory %q: %w", abs, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("writer: output path %q is not a directory", abs)
	}
	if force {
		return nil
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return fmt.Errorf("writer: cannot read output directory %q: %w", abs, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("writer: %q: %w", abs, ErrNotEmpty)
	}
	return nil
}

// target maps a unit path below root, refusing paths that escape it.
func target(root, rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("invalid unit path %q", rel)
	}
	p := filepath.Join(root, filepath.FromSlash(rel))
	if r, err := filepath.Rel(root, p); err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unit path %q escapes the output directory", rel)
	}
	return p, nil
}

func writeAtomic(p string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := os.Rename(name, p); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
