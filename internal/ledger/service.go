package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/folio/internal/model"
)

// ledgerDir holds one canonical CSV per imported export.
const ledgerDir = "ledger"

// Service reads and writes the ledger files of a workspace.
type Service struct {
	repoRoot string
}

// NewService creates a ledger Service.
func NewService(repoRoot string) *Service {
	return &Service{repoRoot: repoRoot}
}

// Append validates entries and appends them to ledger/<name>.csv, creating the file
// with a header if needed. Nothing is written if any entry is invalid.
func (s *Service) Append(name string, entries []model.LedgerEntry) (string, error) {
	if verrs := ValidateEntries(entries); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return "", fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating ledger dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return "", fmt.Errorf("writing header: %w", err)
		}
	}

	if err := AppendEntries(f, entries); err != nil {
		return "", fmt.Errorf("appending entries: %w", err)
	}
	return path, nil
}

// Read returns the entries of ledger/<name>.csv, or nil if it does not exist.
func (s *Service) Read(name string) ([]model.LedgerEntry, error) {
	return ReadFile(s.Path(name))
}

// Path returns the ledger file for an export name. The extension of name is replaced.
func (s *Service) Path(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return filepath.Join(s.repoRoot, ledgerDir, stem+".csv")
}

// ReadFile reads a ledger CSV from an arbitrary path. A missing file yields nil.
func ReadFile(path string) ([]model.LedgerEntry, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return entries, nil
}
