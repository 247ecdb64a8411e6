package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/folio/internal/config"
	"github.com/cleared-dev/folio/internal/importer"
	"github.com/cleared-dev/folio/internal/keywords"
	"github.com/cleared-dev/folio/internal/logging"
	"github.com/cleared-dev/folio/internal/splits"
)

// workspace is a resolved folio directory: its config, tables and logger.
type workspace struct {
	root     string
	cfg      *config.Config
	log      zerolog.Logger
	splits   *splits.Table
	keywords *keywords.Table
}

// openWorkspace loads folio.yaml from g.repo. A directory without folio.yaml runs on
// defaults, so parse works on any file without init.
func openWorkspace(g *globalFlags) (*workspace, error) {
	root, err := filepath.Abs(g.repo)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default("")
		cfg.Data.SplitsFile = ""
	} else if err != nil {
		return nil, err
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if g.logLevel != "" {
		level = g.logLevel
	}
	if g.logFormat != "" {
		format = g.logFormat
	}
	log, err := logging.New(os.Stderr, level, format)
	if err != nil {
		return nil, err
	}

	ws := &workspace{root: root, cfg: cfg, log: log}
	if ws.splits, err = ws.loadSplits(); err != nil {
		return nil, err
	}
	if ws.keywords, err = ws.loadKeywords(); err != nil {
		return nil, err
	}
	return ws, nil
}

func (w *workspace) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(w.root, rel)
}

func (w *workspace) loadSplits() (*splits.Table, error) {
	if w.cfg.Data.SplitsFile == "" {
		return splits.Default(), nil
	}
	t, err := splits.Load(w.path(w.cfg.Data.SplitsFile))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", w.cfg.Data.SplitsFile, err)
	}
	w.log.Debug().Str("file", w.cfg.Data.SplitsFile).Int("events", len(t.All())).Msg("split table loaded")
	return t, nil
}

func (w *workspace) loadKeywords() (*keywords.Table, error) {
	if w.cfg.Data.KeywordsFile == "" {
		return keywords.Default(), nil
	}
	t, err := keywords.Load(w.path(w.cfg.Data.KeywordsFile))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", w.cfg.Data.KeywordsFile, err)
	}
	return t, nil
}

// parser builds an importer over the workspace tables. opts overrides the
// configured tuning where set.
func (w *workspace) parser(opts importer.Options) *importer.Parser {
	base := importer.Options{
		ScanLines:    w.cfg.Parse.ScanLines,
		SampleRows:   w.cfg.Parse.SampleRows,
		PriceCeiling: w.cfg.Parse.PriceCeiling,
		WatchList:    w.cfg.Parse.WatchList,
	}
	return importer.NewParser(
		importer.WithSplits(w.splits),
		importer.WithKeywords(w.keywords),
		importer.WithLogger(w.log),
		importer.WithOptions(base),
		importer.WithOptions(opts),
	)
}

// account resolves the target account label: the flag, then folio.yaml.
func (w *workspace) account(flag string) string {
	if flag != "" {
		return flag
	}
	return w.cfg.Account
}
