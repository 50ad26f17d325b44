// Package fs provides file-based storage for dated announcement records.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/oadigest"
)

// Ensure RecordStore implements oadigest.RecordStore at compile time.
var _ oadigest.RecordStore = (*RecordStore)(nil)

// RecordStore persists one JSON array per target date under dir.
// Files are named <YYYY-MM-DD>.json.
type RecordStore struct {
	dir string
}

// NewRecordStore creates a new RecordStore rooted at dir.
func NewRecordStore(dir string) *RecordStore {
	return &RecordStore{dir: dir}
}

// Path returns the record file path for date.
func (s *RecordStore) Path(date string) string {
	return filepath.Join(s.dir, date+".json")
}

// Save writes announcements to the date's record file, replacing any
// previous content. An empty set writes nothing.
func (s *RecordStore) Save(ctx context.Context, date string, announcements []*oadigest.Announcement) error {
	if err := oadigest.ValidateDate(date); err != nil {
		return err
	}
	if len(announcements) == 0 {
		return nil
	}

	data, err := Encode(announcements)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	// Write to a temp file in the same directory, then rename.
	tmp, err := os.CreateTemp(s.dir, date+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.Path(date)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Load reads the record file for date. When it does not exist the most
// recently modified record file is used instead. The returned date names
// the file that was actually read.
func (s *RecordStore) Load(ctx context.Context, date string) (string, []*oadigest.Announcement, error) {
	loaded := date
	path := s.Path(date)
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, err
		}
		newest, err := s.newest()
		if err != nil {
			return "", nil, err
		}
		path = newest
		loaded = strings.TrimSuffix(filepath.Base(newest), ".json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	var announcements []*oadigest.Announcement
	if err := json.Unmarshal(data, &announcements); err != nil {
		return "", nil, oadigest.Errorf(oadigest.EINVALID, "invalid record file %s: %v", filepath.Base(path), err)
	}
	return loaded, announcements, nil
}

func (s *RecordStore) newest() (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return "", err
	}

	var newest string
	var newestInfo os.FileInfo
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if newestInfo == nil || info.ModTime().After(newestInfo.ModTime()) {
			newest, newestInfo = m, info
		}
	}
	if newest == "" {
		return "", oadigest.Errorf(oadigest.ENOTFOUND, "no record files in %s", s.dir)
	}
	return newest, nil
}

// Encode renders announcements as a 4-space indented JSON array with
// non-ASCII and HTML characters left unescaped.
func Encode(announcements []*oadigest.Announcement) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(announcements); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
