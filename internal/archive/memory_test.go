package archive

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"vortex-go/internal/vortex"
)

func TestMemoryArchive_RoundTrip(t *testing.T) {
	a := NewMemoryArchive("mem")
	data := []byte(`{"run_id":"run-1"}`)

	if err := a.PutReport("run-1.json", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("PutReport() error = %v", err)
	}

	var buf bytes.Buffer
	if err := a.GetReport("run-1.json", &buf); err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("GetReport() = %q, want %q", buf.Bytes(), data)
	}
	if got := a.Keys(); len(got) != 1 || got[0] != "run-1.json" {
		t.Errorf("Keys() = %v", got)
	}
	if a.Name() != "mem" {
		t.Errorf("Name() = %q", a.Name())
	}
}

func TestMemoryArchive_Errors(t *testing.T) {
	a := NewMemoryArchive("mem")

	t.Run("missing key", func(t *testing.T) {
		err := a.GetReport("nope.json", &bytes.Buffer{})
		if !errors.Is(err, vortex.ErrArchiveNotFound) {
			t.Errorf("GetReport() error = %v, want ErrArchiveNotFound", err)
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		err := a.PutReport("run.json", strings.NewReader("abc"), 10)
		if err == nil || !strings.Contains(err.Error(), "size mismatch") {
			t.Errorf("PutReport() error = %v, want size mismatch", err)
		}
		if len(a.Keys()) != 0 {
			t.Errorf("report stored despite size mismatch")
		}
	})

	t.Run("invalid keys", func(t *testing.T) {
		for _, key := range []string{"", "../x.json", `a\b.json`, "a/b.json", "C:x.json"} {
			if err := a.PutReport(key, strings.NewReader(""), 0); err == nil {
				t.Errorf("PutReport(%q) succeeded, want error", key)
			}
		}
	})
}
