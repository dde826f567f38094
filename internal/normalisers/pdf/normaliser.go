// Package pdf extracts text from PDF files using poppler's pdftotext tool.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const toolName = "pdftotext"

// PageSeparator is placed between the text of consecutive pages.
// Counting form feeds gives the number of pages minus one.
const PageSeparator = "\f\n"

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}
	return exec.CommandContext(ctx, name, args...).Output()
}

// Normaliser handles PDF documents.
type Normaliser struct {
	runner CommandRunner
}

// New creates a PDF normaliser that shells out to pdftotext.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}}
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{runner: runner}
}

// FileTypes returns the file types this normaliser handles.
func (n *Normaliser) FileTypes() []string {
	return []string{"pdf"}
}

// Normalise extracts text page by page and joins the pages with PageSeparator.
// Pages with no text stay as empty pages so the page count holds.
// An image-only PDF yields "".
func (n *Normaliser) Normalise(ctx context.Context, path string) (string, error) {
	out, err := n.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return "", fmt.Errorf("%w\n%s", err, InstallInstructions())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("pdftotext failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}

	return joinPages(string(out)), nil
}

// joinPages splits pdftotext output on form feeds, one per page, and rejoins
// the trimmed pages. It returns "" when no page has text.
func joinPages(out string) string {
	raw := strings.Split(strings.TrimSuffix(strings.TrimRight(out, " \t\r\n"), "\f"), "\f")
	pages := make([]string, 0, len(raw))
	empty := true
	for _, page := range raw {
		page = strings.TrimRight(page, " \t\r\n")
		if strings.TrimSpace(page) == "" {
			page = ""
		} else {
			empty = false
		}
		pages = append(pages, page)
	}
	if empty {
		return ""
	}
	return strings.Join(pages, PageSeparator)
}

// CheckAvailable returns ErrPDFToolNotFound if pdftotext is not installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns how to install pdftotext on common platforms.
func InstallInstructions() string {
	return `PDF support requires pdftotext (poppler):
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}
