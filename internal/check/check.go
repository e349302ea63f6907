// Package check provides system diagnostics (--check mode) and pre-batch
// dependency validation for pdftoppm and a headless browser.
package check

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"rasterbatch/internal/convert"
)

// ErrPdftoppmNotFound is returned by CheckDeps when pdftoppm is missing.
// PDF conversion has no fallback, so a batch cannot start without it.
var ErrPdftoppmNotFound = errors.New("pdftoppm not found on PATH")

// CheckDeps validates the tools a batch needs before it starts. pdftoppm is
// required; a missing browser is reported through the returned flag so the
// caller can warn and continue (page tasks then fail individually).
func CheckDeps() (browserOK bool, err error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return false, ErrPdftoppmNotFound
	}
	_, err = convert.BrowserBinary()
	return err == nil, nil
}

// RunCheck runs the interactive --check flow: prints availability and
// versions of pdftoppm and the headless browser. Informational only.
func RunCheck(log zerolog.Logger) {
	log.Info().Msg("=== System Check ===")
	checkPdftoppm(log)
	checkBrowser(log)
}

func checkPdftoppm(log zerolog.Logger) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		log.Error().Msg("pdftoppm not found (install poppler-utils)")
		return
	}
	// pdftoppm prints its version banner on stderr.
	out, _ := exec.Command("pdftoppm", "-v").CombinedOutput()
	log.Info().Str("version", firstLine(string(out))).Msg("pdftoppm available")
}

func checkBrowser(log zerolog.Logger) {
	bin, err := convert.BrowserBinary()
	if err != nil {
		log.Warn().Msg("no headless browser found; HTML pages will fail to convert")
		return
	}
	out, err := exec.Command(bin, "--version").Output()
	if err != nil {
		log.Warn().Str("binary", bin).Msg("browser found but --version failed")
		return
	}
	log.Info().Str("version", firstLine(string(out))).Msg("browser available")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx > 0 {
		s = s[:idx]
	}
	return s
}
