package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMonthlyWriter_WritesToCurrentMonthFile(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	w, err := NewMonthlyWriter(dir, func() time.Time { return fixed })
	if err != nil {
		t.Fatalf("NewMonthlyWriter: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := filepath.Join(dir, "rasterbatch-2026-03.log")
	if w.Path() != want {
		t.Errorf("Path() = %q, want %q", w.Path(), want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("log content = %q", data)
	}
}

func TestMonthlyWriter_RotatesOnMonthBoundary(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC)

	w, err := NewMonthlyWriter(dir, func() time.Time { return now })
	if err != nil {
		t.Fatalf("NewMonthlyWriter: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("march\n")); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := w.Write([]byte("april\n")); err != nil {
		t.Fatal(err)
	}

	march, err := os.ReadFile(filepath.Join(dir, "rasterbatch-2026-03.log"))
	if err != nil {
		t.Fatalf("march log: %v", err)
	}
	april, err := os.ReadFile(filepath.Join(dir, "rasterbatch-2026-04.log"))
	if err != nil {
		t.Fatalf("april log: %v", err)
	}
	if string(march) != "march\n" || string(april) != "april\n" {
		t.Errorf("split = %q / %q", march, april)
	}
}

func TestMonthlyWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return fixed }

	w, err := NewMonthlyWriter(dir, clock)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("first\n")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	w2, err := NewMonthlyWriter(dir, clock)
	if err != nil {
		t.Fatal(err)
	}
	defer w2.Close()
	if _, err := w2.Write([]byte("second\n")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "rasterbatch-2026-07.log"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("content = %q", data)
	}
}

func TestMonthlyWriter_CreatesLogDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs", "nested")
	w, err := NewMonthlyWriter(dir, nil)
	if err != nil {
		t.Fatalf("NewMonthlyWriter: %v", err)
	}
	defer w.Close()
	if !strings.HasPrefix(w.Path(), dir) {
		t.Errorf("Path() = %q, want inside %q", w.Path(), dir)
	}
}

func TestSetup_WithoutLogDir(t *testing.T) {
	log, closer, err := Setup("", true)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer closer.Close()
	if log.GetLevel() != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", log.GetLevel())
	}
}

func TestSetup_WithLogDir(t *testing.T) {
	dir := t.TempDir()
	log, closer, err := Setup(dir, false)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer closer.Close()

	log.Info().Msg("batch started")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("log dir entries = %d, want 1", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "batch started") {
		t.Errorf("log file missing message: %q", data)
	}
}
