package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore persists the policy as a single JSON document on disk:
//
//	{ "restricted_names": [...], "admin_ids": [...] }
//
// The in-memory document is the source of truth between saves; every write
// rewrites the file through a temp-file + rename swap so readers of the file
// never observe a partial document. A missing file is not an error: the
// store starts from an empty document and creates the file on first write.
type FileStore struct {
	path string

	mu  sync.RWMutex
	doc Document
}

// NewFileStore opens (or initializes) the policy document at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.doc = Document{RestrictedNames: []string{}, AdminIDs: []int64{}}
		if err := s.persist(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStoreLoad, path, err)
	}

	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrStoreLoad, path, err)
	}
	if s.doc.RestrictedNames == nil {
		s.doc.RestrictedNames = []string{}
	}
	if s.doc.AdminIDs == nil {
		s.doc.AdminIDs = []int64{}
	}
	return s, nil
}

// Load returns a snapshot of the current document.
func (s *FileStore) Load(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.snapshot(), nil
}

// Append adds a restricted name, rejecting case-insensitive duplicates.
func (s *FileStore) Append(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if containsFold(s.doc.RestrictedNames, name) {
		return ErrDuplicate
	}
	s.doc.RestrictedNames = append(s.doc.RestrictedNames, name)
	if err := s.persist(); err != nil {
		// Roll back the in-memory append so memory and disk stay in step.
		s.doc.RestrictedNames = s.doc.RestrictedNames[:len(s.doc.RestrictedNames)-1]
		return err
	}
	return nil
}

// Remove deletes a restricted name under case-insensitive comparison.
func (s *FileStore) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, n := range s.doc.RestrictedNames {
		if strings.EqualFold(n, name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}

	removed := s.doc.RestrictedNames[idx]
	s.doc.RestrictedNames = append(s.doc.RestrictedNames[:idx], s.doc.RestrictedNames[idx+1:]...)
	if err := s.persist(); err != nil {
		s.doc.RestrictedNames = append(s.doc.RestrictedNames[:idx],
			append([]string{removed}, s.doc.RestrictedNames[idx:]...)...)
		return err
	}
	return nil
}

// SetAdmins replaces the admin-id list. Used by deployments that manage
// admins through the same document rather than a fixed env list.
func (s *FileStore) SetAdmins(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.doc.AdminIDs
	s.doc.AdminIDs = append([]int64{}, ids...)
	if err := s.persist(); err != nil {
		s.doc.AdminIDs = prev
		return err
	}
	return nil
}

// persist writes the document atomically: marshal to a temp file in the
// same directory, then rename over the target. Caller holds s.mu.
func (s *FileStore) persist() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("policy: marshal document: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".policy-*.json")
	if err != nil {
		return fmt.Errorf("policy: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("policy: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("policy: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("policy: replace %s: %w", s.path, err)
	}
	return nil
}
