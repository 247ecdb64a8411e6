package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo describes a brokerage export (positions or transactions download) waiting
// in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Brokerage downloads land in import/ and move to import/processed/ once their entries
// are in the ledger.
const (
	importDir    = "import"
	processedDir = "import/processed"
)

// importExts are the delimited-text extensions brokerages use for downloads. Tab- and
// semicolon-delimited exports are sniffed by ReadRows, not by extension.
var importExts = map[string]bool{".csv": true, ".tsv": true, ".txt": true}

// Scan returns the brokerage exports waiting in <repoRoot>/import/, sorted by name.
// Statements in other formats (PDF, OFX) are left alone.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !importExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves an export whose entries reached the ledger to import/processed/,
// so the next import does not read it again.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
