package check

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/rs/zerolog"
)

func TestFirstLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pdftoppm version 24.02.0\ncopyright stuff\n", "pdftoppm version 24.02.0"},
		{"single line", "single line"},
		{"  padded  \n", "padded"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := firstLine(tt.in); got != tt.want {
			t.Errorf("firstLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheckDeps(t *testing.T) {
	_, pdfErr := exec.LookPath("pdftoppm")

	_, err := CheckDeps()
	if pdfErr != nil {
		if !errors.Is(err, ErrPdftoppmNotFound) {
			t.Errorf("err = %v, want ErrPdftoppmNotFound", err)
		}
		return
	}
	if err != nil {
		t.Errorf("CheckDeps: %v", err)
	}
}

func TestRunCheck_DoesNotPanic(t *testing.T) {
	RunCheck(zerolog.Nop())
}
