// Package archive keeps rendered reports on disk for later download.
package archive

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/pkg/errors"
)

const DefaultRetention = 48 * time.Hour

type Archive struct {
	dir string
	now func() time.Time
}

func New(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create reports dir")
	}
	return &Archive{dir: dir, now: time.Now}, nil
}

func (a *Archive) Dir() string { return a.dir }

// ValidName reports whether name is a bare *.pdf file name the archive accepts.
func ValidName(name string) bool {
	return name != "" &&
		filepath.Base(name) == name &&
		!strings.ContainsAny(name, `/\`) &&
		!strings.HasPrefix(name, ".") &&
		strings.EqualFold(filepath.Ext(name), ".pdf")
}

// Save writes content atomically; an existing report with the same name is replaced.
func (a *Archive) Save(name string, content []byte) (string, error) {
	if !ValidName(name) {
		return "", models.Errorf(models.ErrInvalidInput, "invalid report file name")
	}
	tmp, err := os.CreateTemp(a.dir, ".tmp-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp report")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", errors.Wrap(err, "write report")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, "close report")
	}
	path := filepath.Join(a.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrap(err, "rename report")
	}
	return path, nil
}

// Open returns a stored report. The caller closes the file.
func (a *Archive) Open(name string) (*os.File, os.FileInfo, error) {
	if !ValidName(name) {
		return nil, nil, models.Errorf(models.ErrNotFound, "Report not found")
	}
	f, err := os.Open(filepath.Join(a.dir, name))
	if os.IsNotExist(err) {
		return nil, nil, models.Errorf(models.ErrNotFound, "Report not found")
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "open report")
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrap(err, "stat report")
	}
	return f, st, nil
}

// Cleanup deletes PDFs last modified more than olderThan ago and reports how many went.
func (a *Archive) Cleanup(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(a.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read reports dir")
	}

	cutoff := a.now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(a.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, errors.Wrapf(err, "remove %s", e.Name())
		}
		removed++
	}
	return removed, nil
}
