// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"path/filepath"
	"testing"
)

func runStoreSuite(t *testing.T, s MetadataStore) {
	t.Helper()

	if rec, err := s.Get("f", "defun"); err != nil || rec != nil {
		t.Fatalf("expected no record before put, got %v, %v", rec, err)
	}

	v1, err := s.Put("f", "defun", "(patch-swap a b)")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if v1 != 1 {
		t.Errorf("expected first version 1, got %d", v1)
	}
	v2, err := s.Put("f", "defun", "(patch-swap a c)")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if v2 != 2 {
		t.Errorf("expected second version 2, got %d", v2)
	}

	// Same name under a different kind versions independently.
	if v, err := s.Put("f", "defmacro", "(patch-add x)"); err != nil || v != 1 {
		t.Errorf("expected independent version 1 for other kind, got %d, %v", v, err)
	}

	rec, err := s.Get("f", "defun")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil || rec.Version != 2 || rec.Value != "(patch-swap a c)" {
		t.Errorf("expected latest version 2, got %+v", rec)
	}
	if rec.Ts == "" {
		t.Error("expected a timestamp on the record")
	}

	old, err := s.GetVersion("f", "defun", 1)
	if err != nil {
		t.Fatalf("get version: %v", err)
	}
	if old == nil || old.Value != "(patch-swap a b)" {
		t.Errorf("expected version 1 value, got %+v", old)
	}
	if missing, err := s.GetVersion("f", "defun", 9); err != nil || missing != nil {
		t.Errorf("expected nil for missing version, got %v, %v", missing, err)
	}

	versions, err := s.Versions("f", "defun")
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 2 || versions[0].Version != 2 || versions[1].Version != 1 {
		t.Errorf("expected versions newest first, got %+v", versions)
	}

	if err := s.Delete("f", "defun"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec, err := s.Get("f", "defun"); err != nil || rec != nil {
		t.Errorf("expected no record after delete, got %v, %v", rec, err)
	}
	if rec, err := s.Get("f", "defmacro"); err != nil || rec == nil {
		t.Errorf("expected other kind to survive delete, got %v, %v", rec, err)
	}
	if v, err := s.Put("f", "defun", "(patch-add y)"); err != nil || v != 1 {
		t.Errorf("expected versions to restart after delete, got %d, %v", v, err)
	}

	if err := s.SetMetadata("note", "v"); err != nil {
		t.Fatalf("set metadata: %v", err)
	}
	if got, err := s.GetMetadata("note"); err != nil || got != "v" {
		t.Errorf("expected metadata v, got %q, %v", got, err)
	}
	if got, err := s.GetMetadata("absent"); err != nil || got != "" {
		t.Errorf("expected empty metadata for absent key, got %q, %v", got, err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	runStoreSuite(t, s)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	runStoreSuite(t, s)
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Put("f", "defun", "(patch-add x)"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	rec, err := s2.Get("f", "defun")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil || rec.Value != "(patch-add x)" {
		t.Errorf("expected record to survive reopen, got %+v", rec)
	}
	if v, err := s2.GetMetadata("schema_version"); err != nil || v != SchemaVersion {
		t.Errorf("expected schema version %s, got %q, %v", SchemaVersion, v, err)
	}
}

func TestSQLiteRejectsUnknownSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetMetadata("schema_version", "999"); err != nil {
		t.Fatalf("set metadata: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := NewSQLite(path); err == nil {
		t.Error("expected error for unknown schema version")
	}
}
