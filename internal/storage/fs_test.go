package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStorePutGet(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key, err := s.Put("library/q1/quiz.xml", strings.NewReader("<quiz/>"))
	if err != nil {
		t.Fatal(err)
	}
	if key != "library/q1/quiz.xml" {
		t.Errorf("key = %q", key)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "<quiz/>" {
		t.Errorf("content = %q", b)
	}
}

func TestFSStoreKeysStayInsideBase(t *testing.T) {
	base := t.TempDir()
	s, err := NewFSStore(base)
	if err != nil {
		t.Fatal(err)
	}
	key, err := s.Put("../../escape.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if key != "escape.txt" {
		t.Errorf("key = %q", key)
	}
	if _, err := os.Stat(filepath.Join(base, "escape.txt")); err != nil {
		t.Errorf("file not stored under base: %v", err)
	}
	if _, err := s.Path("/"); !errors.Is(err, ErrBadKey) {
		t.Errorf("Path(/) err = %v", err)
	}
}

func TestFSStoreDelete(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, _ = s.Put("library/q1/a.png", strings.NewReader("a"))
	_, _ = s.Put("library/q1/quiz.xml", strings.NewReader("b"))
	if err := s.Delete("library/q1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get("library/q1/quiz.xml"); err == nil {
		t.Error("expected blob to be gone")
	}
}
