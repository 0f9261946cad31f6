package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"carecensus/internal/blob/core"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver %s", s.Driver())
	}

	info, err := s.Put(ctx, "exports/e1/header.csv", bytes.NewReader([]byte("CHILD\n1\n")), core.PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"format": "csv"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 8 || info.ETag == "" || info.URL != "http://local.blob/exports/e1/header.csv" {
		t.Fatalf("unexpected info %#v", info)
	}

	if _, err := s.Put(ctx, "exports/e1/header.csv", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	got, rc, err := s.Get(ctx, "exports/e1/header.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "CHILD\n1\n" || got.ContentType != "text/csv" || got.Metadata["format"] != "csv" {
		t.Fatalf("unexpected get %#v %q", got, body)
	}

	if _, err := s.Put(ctx, "exports/e2/episodes.csv", bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	list, err := s.List(ctx, "exports/e1/")
	if err != nil || len(list) != 1 || list[0].Key != "exports/e1/header.csv" {
		t.Fatalf("list: %v %#v", err, list)
	}
	all, err := s.List(ctx, "")
	if err != nil || len(all) != 2 || all[0].Key > all[1].Key {
		t.Fatalf("list all: %v %#v", err, all)
	}

	ok, err := s.Delete(ctx, "exports/e1/header.csv")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = s.Delete(ctx, "exports/e1/header.csv")
	if err != nil || ok {
		t.Fatalf("second delete: %v %v", ok, err)
	}
	if _, err := s.Head(ctx, "exports/e1/header.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreRejectsBadKeys(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"", " ", "/abs", "../escape", "a/../../b", "x.meta"} {
		if _, err := s.Put(context.Background(), key, bytes.NewReader(nil), core.PutOptions{}); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
	if _, err := s.PresignURL(context.Background(), "k", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported, got %v", err)
	}
	url, err := s.PresignURL(context.Background(), "k", core.SignedURLOptions{})
	if err != nil || url != "http://local.blob/k" {
		t.Fatalf("presign: %q %v", url, err)
	}
}

func TestStoreCorruptSidecar(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Put(context.Background(), "k", bytes.NewReader([]byte("v")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "k.meta"), []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.Head(context.Background(), "k"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := s.List(context.Background(), ""); err == nil {
		t.Fatalf("expected list error")
	}
}

func TestStoreCancelledContext(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Put(ctx, "k", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}
