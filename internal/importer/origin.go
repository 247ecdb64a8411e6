package importer

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/folio/internal/keywords"
	"github.com/cleared-dev/folio/internal/model"
)

// OriginDecision says whether a row belongs to the target account and why.
type OriginDecision struct {
	IsExternal bool
	Reason     string
	Rule       string
	Confidence model.Confidence
}

// Analyze samples up to sampleSize data rows for the institutions and account sources
// they name, and works out which institution is the target account's own.
func Analyze(rows []model.RawRow, cmap model.ColumnMap, target string, kw *keywords.Table, sampleSize int) model.AccountAnalysis {
	a := model.AccountAnalysis{}
	if b, ok := kw.MatchBrokerage(target); ok {
		a.TargetBrokerage = b.Key
	}

	seenInst := make(map[string]bool)
	seenSrc := make(map[string]bool)
	for _, r := range rows {
		if a.SampleSize >= sampleSize {
			break
		}
		if r.IsBlank() {
			continue
		}
		a.SampleSize++
		if v, ok := cmap.Value(r, model.FieldInstitution); ok && !seenInst[strings.ToLower(v)] {
			seenInst[strings.ToLower(v)] = true
			a.Institutions = append(a.Institutions, v)
		}
		if v, ok := cmap.Value(r, model.FieldSourceAccount); ok && !seenSrc[strings.ToLower(v)] {
			seenSrc[strings.ToLower(v)] = true
			a.AccountSources = append(a.AccountSources, v)
		}
	}

	for _, inst := range a.Institutions {
		if matchesTarget(inst, target, a.TargetBrokerage, kw) {
			if a.TargetInstitution == "" {
				a.TargetInstitution = inst
			}
			continue
		}
		a.NonMatchingInstitutions = append(a.NonMatchingInstitutions, inst)
	}
	return a
}

// matchesTarget reports whether an institution name refers to the target account's
// brokerage. Known brokerages compare by key; anything else by containment of names.
func matchesTarget(inst, target, targetBrokerage string, kw *keywords.Table) bool {
	if b, ok := kw.MatchBrokerage(inst); ok && targetBrokerage != "" {
		return b.Key == targetBrokerage
	}
	i := strings.ToLower(strings.TrimSpace(inst))
	t := strings.ToLower(strings.TrimSpace(target))
	if i == "" || t == "" {
		return false
	}
	return strings.Contains(i, t) || strings.Contains(t, i)
}

// Classifier runs the account-origin rules for one parse. Safe for concurrent use.
type Classifier struct {
	target          string
	targetBrokerage keywords.Brokerage
	hasTarget       bool
	analysis        model.AccountAnalysis
	kw              *keywords.Table
	watchList       map[string]bool
}

// NewClassifier prepares the rules for a target account label.
func NewClassifier(target string, analysis model.AccountAnalysis, kw *keywords.Table, watchList []string) *Classifier {
	c := &Classifier{
		target:    target,
		analysis:  analysis,
		kw:        kw,
		watchList: make(map[string]bool, len(watchList)),
	}
	c.targetBrokerage, c.hasTarget = kw.MatchBrokerage(target)
	for _, s := range watchList {
		c.watchList[cleanSymbol(s)] = true
	}
	return c
}

type originRule struct {
	name   string
	decide func(c *Classifier, f RowFields) (OriginDecision, bool)
}

// originRules run in order; the first rule with an opinion decides.
var originRules = []originRule{
	{name: "external flag", decide: (*Classifier).byExternalFlag},
	{name: "institution brokerage", decide: (*Classifier).byInstitution},
	{name: "account source", decide: (*Classifier).bySource},
	{name: "mixed institutions", decide: (*Classifier).byMixedInstitutions},
	{name: "watch list", decide: (*Classifier).byWatchList},
}

// Classify decides whether the row's holding is native to the target account.
func (c *Classifier) Classify(f RowFields) OriginDecision {
	for _, rule := range originRules {
		if d, ok := rule.decide(c, f); ok {
			d.Rule = rule.name
			return d
		}
	}
	return OriginDecision{
		Reason:     "no external signal",
		Rule:       "native",
		Confidence: model.ConfidenceHigh,
	}
}

func external(reason string, conf model.Confidence) (OriginDecision, bool) {
	return OriginDecision{IsExternal: true, Reason: reason, Confidence: conf}, true
}

func (c *Classifier) byExternalFlag(f RowFields) (OriginDecision, bool) {
	if f.ExternalFlag == "" || !c.kw.IsExternalFlag(f.ExternalFlag) {
		return OriginDecision{}, false
	}
	return external(fmt.Sprintf("external flag is %q", f.ExternalFlag), model.ConfidenceHigh)
}

func (c *Classifier) byInstitution(f RowFields) (OriginDecision, bool) {
	if !c.hasTarget || f.Institution == "" {
		return OriginDecision{}, false
	}
	b, ok := c.kw.MatchBrokerage(f.Institution)
	if !ok || b.Key == c.targetBrokerage.Key {
		return OriginDecision{}, false
	}
	return external(fmt.Sprintf("institution %q is %s, which does not match %s of target account %q",
		f.Institution, b.Name, c.targetBrokerage.Name, c.target), model.ConfidenceHigh)
}

func (c *Classifier) bySource(f RowFields) (OriginDecision, bool) {
	if f.SourceAccount == "" {
		return OriginDecision{}, false
	}
	if c.kw.IsExternalSource(f.SourceAccount) {
		return external(fmt.Sprintf("account source %q marks an external account", f.SourceAccount), model.ConfidenceHigh)
	}
	if !c.hasTarget {
		return OriginDecision{}, false
	}
	if b, ok := c.kw.MatchBrokerage(f.SourceAccount); ok && b.Key != c.targetBrokerage.Key {
		return external(fmt.Sprintf("account source %q is %s, not %s", f.SourceAccount, b.Name, c.targetBrokerage.Name), model.ConfidenceHigh)
	}
	return OriginDecision{}, false
}

func (c *Classifier) byMixedInstitutions(f RowFields) (OriginDecision, bool) {
	a := c.analysis
	if !a.MultipleInstitutions() || a.TargetInstitution == "" || f.Institution == "" {
		return OriginDecision{}, false
	}
	if strings.EqualFold(f.Institution, a.TargetInstitution) || c.matches(f.Institution) {
		return OriginDecision{}, false
	}
	return external(fmt.Sprintf("file mixes %d institutions and %q is not the target account's %q",
		len(a.Institutions), f.Institution, a.TargetInstitution), model.ConfidenceHigh)
}

// byWatchList is a weak signal: a concentrated symbol in a file that also carries some
// other institution. It never overrides the row's own institution naming the target.
func (c *Classifier) byWatchList(f RowFields) (OriginDecision, bool) {
	if !c.watchList[f.Symbol] || len(c.analysis.NonMatchingInstitutions) == 0 {
		return OriginDecision{}, false
	}
	if f.Institution != "" && c.matches(f.Institution) {
		return OriginDecision{}, false
	}
	return external(fmt.Sprintf("%s is on the concentration watch list and the file includes other institutions (%s)",
		f.Symbol, strings.Join(c.analysis.NonMatchingInstitutions, ", ")), model.ConfidenceLow)
}

func (c *Classifier) matches(inst string) bool {
	return matchesTarget(inst, c.target, c.targetBrokerage.Key, c.kw)
}
