package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/GregMSThompson/agent-dashboard/internal/errs"
	"github.com/GregMSThompson/agent-dashboard/internal/properties"
	"github.com/GregMSThompson/agent-dashboard/pkg/helpers"
	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

type propertyFileStore struct {
	path string
}

func NewPropertyFileStore(path string) *propertyFileStore {
	return &propertyFileStore{path: path}
}

// Load returns the cached payload and a version that changes whenever the file
// does. Unparseable content is returned as a nil payload, not an error.
func (s *propertyFileStore) Load(ctx context.Context) (any, string, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", errs.NewNotFoundError("property cache not found")
	}
	if err != nil {
		return nil, "", errs.NewDatabaseError("read", "failed to stat property cache", err)
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, "", errs.NewDatabaseError("read", "failed to read property cache", err)
	}
	raw, ok := helpers.DecodeLoose(b)
	if !ok {
		logger.FromContext(ctx).Warn("property cache is not valid JSON", "path", s.path)
	}
	version := fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size())
	return raw, version, nil
}

// Save replaces the cache file. The new content is written to a sibling temp
// file first so readers never observe a partial write.
func (s *propertyFileStore) Save(ctx context.Context, records []properties.Record) error {
	if records == nil {
		records = []properties.Record{}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return errs.NewDatabaseError("write", "failed to create property cache", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(properties.File{AccountsAndProperties: records}); err != nil {
		tmp.Close()
		return errs.NewDatabaseError("write", "failed to encode property cache", err)
	}
	if err := tmp.Close(); err != nil {
		return errs.NewDatabaseError("write", "failed to write property cache", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errs.NewDatabaseError("write", "failed to replace property cache", err)
	}
	logger.FromContext(ctx).Debug("property cache written", "path", s.path, "count", len(records))
	return nil
}
