// Package keywords holds the vocabulary used to read brokerage exports: brokerage
// synonyms, column synonyms and the cell words that drive classification.
//
// The vocabulary is data. The built-in table is embedded YAML and a replacement can be
// loaded from disk, so adding a brokerage or a column synonym needs no code change.
package keywords

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/folio/internal/model"
)

//go:embed keywords.yaml
var defaultYAML []byte

// Brokerage is one known brokerage and the words that name it.
type Brokerage struct {
	Key              string   `yaml:"key"`
	Name             string   `yaml:"name"`
	Synonyms         []string `yaml:"synonyms"`
	HeaderSignatures []string `yaml:"header_signatures,omitempty"`
}

// Table is the full vocabulary. Treat it as read-only once loaded.
type Table struct {
	Brokerages         []Brokerage              `yaml:"brokerages"`
	Fields             map[model.Field][]string `yaml:"fields"`
	PositionIndicators []string                 `yaml:"position_indicators"`
	TransactionTokens  []string                 `yaml:"transaction_tokens"`
	ExternalFlags      []string                 `yaml:"external_flags"`
	ExternalSources    []string                 `yaml:"external_sources"`
	BuyActions         []string                 `yaml:"buy_actions"`
	SellActions        []string                 `yaml:"sell_actions"`
	ClosedStatuses     []string                 `yaml:"closed_statuses"`
	NonSecuritySymbols []string                 `yaml:"non_security_symbols"`
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the embedded vocabulary, parsed once per process.
// Panics if the embedded data is malformed.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(defaultYAML)
		if err != nil {
			panic("embedded keyword table: " + err.Error())
		}
		defaultTable = t
	})
	return defaultTable
}

// DefaultYAML returns the embedded vocabulary, for seeding a workspace.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultYAML))
	copy(out, defaultYAML)
	return out
}

// Load reads a vocabulary YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyword table: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a vocabulary.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing keyword table: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	t.lower()
	return &t, nil
}

func (t *Table) validate() error {
	for _, f := range []model.Field{model.FieldSymbol, model.FieldQuantity} {
		if len(t.Fields[f]) == 0 {
			return fmt.Errorf("keyword table: no synonyms for required field %q", f)
		}
	}
	for i, b := range t.Brokerages {
		if b.Key == "" {
			return fmt.Errorf("keyword table: brokerage %d has no key", i)
		}
		if len(b.Synonyms) == 0 {
			return fmt.Errorf("keyword table: brokerage %q has no synonyms", b.Key)
		}
	}
	return nil
}

func (t *Table) lower() {
	lowerAll := func(words []string) {
		for i, w := range words {
			words[i] = strings.ToLower(strings.TrimSpace(w))
		}
	}
	for i := range t.Brokerages {
		lowerAll(t.Brokerages[i].Synonyms)
		lowerAll(t.Brokerages[i].HeaderSignatures)
	}
	for _, syns := range t.Fields {
		lowerAll(syns)
	}
	lowerAll(t.PositionIndicators)
	lowerAll(t.TransactionTokens)
	lowerAll(t.ExternalFlags)
	lowerAll(t.ExternalSources)
	lowerAll(t.BuyActions)
	lowerAll(t.SellActions)
	lowerAll(t.ClosedStatuses)
	lowerAll(t.NonSecuritySymbols)
}

// Synonyms returns the header synonyms for f.
func (t *Table) Synonyms(f model.Field) []string {
	return t.Fields[f]
}

// MatchBrokerage returns the brokerage named in text. When several synonyms match,
// the longest one wins, so "TD Ameritrade" is not read as some shorter name.
func (t *Table) MatchBrokerage(text string) (Brokerage, bool) {
	s := strings.ToLower(text)
	if strings.TrimSpace(s) == "" {
		return Brokerage{}, false
	}
	var best Brokerage
	bestLen := 0
	for _, b := range t.Brokerages {
		for _, syn := range b.Synonyms {
			if len(syn) > bestLen && containsWord(s, syn) {
				best, bestLen = b, len(syn)
			}
		}
	}
	return best, bestLen > 0
}

// Brokerage returns the brokerage with key.
func (t *Table) Brokerage(key string) (Brokerage, bool) {
	for _, b := range t.Brokerages {
		if b.Key == key {
			return b, true
		}
	}
	return Brokerage{}, false
}

// IsExternalFlag reports whether an external-flag cell marks the row external.
func (t *Table) IsExternalFlag(cell string) bool {
	return hasAnyWord(cell, t.ExternalFlags)
}

// IsExternalSource reports whether an account-source cell names an external source.
func (t *Table) IsExternalSource(cell string) bool {
	return hasAnyWord(cell, t.ExternalSources)
}

// IsClosedStatus reports whether a status cell excludes the row.
func (t *Table) IsClosedStatus(cell string) bool {
	return hasAnyWord(cell, t.ClosedStatuses)
}

// IsNonSecurity reports whether a symbol cell is a cash, total or placeholder line.
func (t *Table) IsNonSecurity(symbol string) bool {
	s := strings.ToLower(strings.TrimSpace(symbol))
	for _, w := range t.NonSecuritySymbols {
		if s == w || strings.HasPrefix(s, w+" ") {
			return true
		}
	}
	return false
}

// Action maps an action cell to a trade direction.
func (t *Table) Action(cell string) (model.Action, bool) {
	switch {
	case hasAnyWord(cell, t.SellActions):
		return model.ActionSell, true
	case hasAnyWord(cell, t.BuyActions):
		return model.ActionBuy, true
	}
	return "", false
}

// HasTransactionTokens reports whether text contains any transaction token as a word.
func (t *Table) HasTransactionTokens(text string) bool {
	return hasAnyWord(text, t.TransactionTokens)
}

// hasAnyWord reports whether any phrase occurs in s on word boundaries.
func hasAnyWord(s string, phrases []string) bool {
	s = strings.ToLower(s)
	for _, p := range phrases {
		if containsWord(s, p) {
			return true
		}
	}
	return false
}

// containsWord reports whether phrase occurs in s with non-alphanumeric runes
// (or the string edges) on both sides. Both arguments are lower case.
func containsWord(s, phrase string) bool {
	if phrase == "" {
		return false
	}
	for start := 0; start <= len(s)-len(phrase); {
		i := strings.Index(s[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		if boundaryBefore(s, i) && boundaryAfter(s, end) {
			return true
		}
		start = i + 1
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r := rune(s[i-1])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r := rune(s[i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
