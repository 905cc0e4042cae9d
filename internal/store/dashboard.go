package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/GregMSThompson/agent-dashboard/internal/errs"
)

type dashboardFileStore struct {
	dir string
}

func NewDashboardFileStore(dir string) *dashboardFileStore {
	return &dashboardFileStore{dir: dir}
}

// Read returns a dashboard document from the configured directory. Only the base
// name of name is used, so callers cannot escape the directory.
func (s *dashboardFileStore) Read(_ context.Context, name string) ([]byte, error) {
	if s.dir == "" {
		return nil, errs.NewNotFoundError("dashboard directory not configured")
	}
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return nil, errs.NewValidationError("invalid dashboard file name")
	}
	b, err := os.ReadFile(filepath.Join(s.dir, base))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NewNotFoundError("dashboard file not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to read dashboard file", err)
	}
	return b, nil
}

// List returns the JSON documents available in the directory, sorted by name.
func (s *dashboardFileStore) List(_ context.Context) ([]string, error) {
	if s.dir == "" {
		return []string{}, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, errs.NewDatabaseError("read", "failed to list dashboard files", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
