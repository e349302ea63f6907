package dispatch

import (
	"context"
	"testing"

	"rasterbatch/internal/convert"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(DefaultRegistry(), "/out", convert.DefaultParams())
}

func TestClassify_BuiltinFormats(t *testing.T) {
	d := newTestDispatcher()
	tests := []struct {
		name       string
		path       string
		wantClass  Class
		wantFormat string
	}{
		{"pdf", "/in/report.pdf", Convert, "document"},
		{"pdf uppercase", "/in/REPORT.PDF", Convert, "document"},
		{"png", "/in/scan.png", Convert, "image"},
		{"jpeg", "/in/photo.jpeg", Convert, "image"},
		{"tiff", "/in/fax.tif", Convert, "image"},
		{"html", "/in/page.html", Convert, "page"},
		{"htm", "/in/page.htm", Convert, "page"},
		{"zip", "/in/bundle.zip", Expand, ArchiveFormat},
		{"unknown", "/in/notes.txt", Ignored, ""},
		{"no extension", "/in/Makefile", Ignored, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, class := d.Classify(tt.path, ".")
			if class != tt.wantClass {
				t.Fatalf("class = %v, want %v", class, tt.wantClass)
			}
			if class == Ignored {
				return
			}
			if task.Format != tt.wantFormat {
				t.Errorf("format = %q, want %q", task.Format, tt.wantFormat)
			}
			if task.SourcePath != tt.path {
				t.Errorf("source = %q, want %q", task.SourcePath, tt.path)
			}
			if task.ID == "" {
				t.Error("task ID must be set")
			}
		})
	}
}

func TestClassify_SkipsMarkedFiles(t *testing.T) {
	d := newTestDispatcher()
	if _, class := d.Classify("/in/report_processed.pdf", "."); class != Ignored {
		t.Errorf("marked file classified as %v, want Ignored", class)
	}
}

func TestClassify_TasksAreDistinct(t *testing.T) {
	d := newTestDispatcher()
	a, _ := d.Classify("/in/a.pdf", ".")
	b, _ := d.Classify("/in/a.pdf", ".")
	if a.ID == b.ID {
		t.Error("two classifications produced the same task ID")
	}
}

func TestClassifyNested_CarriesDepthAndParent(t *testing.T) {
	d := newTestDispatcher()
	task, class := d.ClassifyNested("/out/c/d.html", "c", 1, "parent-id")
	if class != Convert {
		t.Fatalf("class = %v, want Convert", class)
	}
	if task.Depth != 1 {
		t.Errorf("depth = %d, want 1", task.Depth)
	}
	if task.ParentID != "parent-id" {
		t.Errorf("parent = %q, want %q", task.ParentID, "parent-id")
	}
	if task.RelDir != "c" {
		t.Errorf("relDir = %q, want %q", task.RelDir, "c")
	}
}

type nopConverter struct{}

func (nopConverter) Convert(context.Context, string, string, string, convert.Params) ([]string, error) {
	return nil, nil
}

func TestRegister_ExtendsTable(t *testing.T) {
	reg := DefaultRegistry()
	reg.Register("vector", nopConverter{}, ".svg")
	d := NewDispatcher(reg, "/out", convert.DefaultParams())

	task, class := d.Classify("/in/logo.svg", ".")
	if class != Convert {
		t.Fatalf("class = %v, want Convert", class)
	}
	if task.Format != "vector" {
		t.Errorf("format = %q, want %q", task.Format, "vector")
	}
	if _, ok := reg.Converter("vector"); !ok {
		t.Error("registered converter not resolvable")
	}
}

func TestDispatcher_ClampsParams(t *testing.T) {
	d := NewDispatcher(DefaultRegistry(), "/out",
		convert.Params{DPI: 0, Quality: 999, MaxWidth: -5, MaxHeight: 0})

	task, _ := d.Classify("/in/a.pdf", ".")
	if task.Params.Quality != 100 {
		t.Errorf("quality = %d, want 100", task.Params.Quality)
	}
	if task.Params.DPI != convert.DefaultDPI {
		t.Errorf("dpi = %d, want %d", task.Params.DPI, convert.DefaultDPI)
	}
	if task.Params.MaxWidth != convert.DefaultMaxWidth || task.Params.MaxHeight != convert.DefaultMaxHeight {
		t.Errorf("dims = %dx%d, want defaults", task.Params.MaxWidth, task.Params.MaxHeight)
	}
}
