package severity

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rajasatyajit/StatusWatch/internal/geoscope"
	"github.com/rajasatyajit/StatusWatch/internal/models"
)

const (
	CriticalThreshold = 0.7
	MajorThreshold    = 0.5
	MinorThreshold    = 0.2

	// majorModifierShare is the part of the context modifier applied to the
	// major tier.
	majorModifierShare = 0.7
	resolvedDampening  = 0.3
	confidenceFloor    = 30
)

// Context carries the signals around an item's text.
type Context struct {
	Service         models.Provider `json:"service"`
	Timestamp       time.Time       `json:"timestamp"`
	GeographicScope geoscope.Scope  `json:"geographic_scope"`
	UserReports     int             `json:"user_reports"`
}

// Scores is the per-tier breakdown.
type Scores struct {
	Critical float64 `json:"critical"`
	Major    float64 `json:"major"`
	Minor    float64 `json:"minor"`
}

// Factor is one contextual contribution to the modifier.
type Factor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Detail string  `json:"detail,omitempty"`
}

// Analysis is the analyzer's verdict for one text.
type Analysis struct {
	Severity   models.Severity `json:"severity"`
	Confidence int             `json:"confidence"`
	Scores     Scores          `json:"scores"`
	Modifier   float64         `json:"modifier"`
	Factors    []Factor        `json:"factors"`
	Resolved   bool            `json:"resolved"`
	Reasoning  string          `json:"reasoning"`

	// thresholdMet is taken from the unrounded scores that chose Severity.
	thresholdMet bool
}

// Analyzer scores text against an immutable rule table. It holds no mutable
// state and is safe for concurrent use.
type Analyzer struct {
	rules RuleSet
}

// New creates an analyzer with the default rule table.
func New() *Analyzer {
	return &Analyzer{rules: DefaultRules()}
}

// NewWithRules creates an analyzer over a custom rule table.
func NewWithRules(rules RuleSet) *Analyzer {
	return &Analyzer{rules: rules}
}

// Analyze scores text and selects a severity tier.
func (a *Analyzer) Analyze(text string, in Context) Analysis {
	scores := Scores{
		Critical: tierScore(a.rules.Critical, text),
		Major:    tierScore(a.rules.Major, text),
		Minor:    tierScore(a.rules.Minor, text),
	}

	if in.GeographicScope == "" {
		in.GeographicScope = geoscope.Detect(text).Scope
	}
	factors := contextFactors(text, in)
	var modifier float64
	for _, f := range factors {
		modifier += f.Weight
	}
	scores.Critical += modifier
	scores.Major += modifier * majorModifierShare

	resolved := resolutionRegex.MatchString(text)
	if resolved {
		scores.Critical *= resolvedDampening
		scores.Major *= resolvedDampening
		scores.Minor *= resolvedDampening
		factors = append(factors, Factor{Name: "resolution", Weight: resolvedDampening, Detail: "all tier scores multiplied"})
	}

	sev, selected := selectTier(scores)

	return Analysis{
		thresholdMet: thresholdMet(scores),
		Severity:   sev,
		Confidence: confidence(selected),
		Scores:     roundScores(scores),
		Modifier:   round(modifier),
		Factors:    factors,
		Resolved:   resolved,
		Reasoning:  reasoning(text),
	}
}

// ThresholdMet reports whether any tier reached its threshold. When none did
// the severity is a fallback rather than a finding.
func (a Analysis) ThresholdMet() bool {
	return a.thresholdMet
}

func thresholdMet(s Scores) bool {
	return s.Critical >= CriticalThreshold ||
		s.Major >= MajorThreshold ||
		s.Minor >= MinorThreshold
}

func tierScore(rules []Rule, text string) float64 {
	var score float64
	for _, r := range rules {
		if n := len(r.Pattern.FindAllStringIndex(text, -1)); n > 0 {
			score += r.Weight * float64(n)
		}
	}
	return score
}

func contextFactors(text string, in Context) []Factor {
	factors := []Factor{}

	if w := ServiceWeight(in.Service); w != 0 {
		factors = append(factors, Factor{Name: "service", Weight: w, Detail: string(in.Service)})
	}

	if !in.Timestamp.IsZero() {
		switch wd := in.Timestamp.Weekday(); {
		case wd == time.Saturday || wd == time.Sunday:
			factors = append(factors, Factor{Name: "weekend", Weight: -0.05, Detail: wd.String()})
		case in.Timestamp.Hour() >= 9 && in.Timestamp.Hour() < 17:
			factors = append(factors, Factor{Name: "business_hours", Weight: 0.1, Detail: in.Timestamp.Format("Mon 15:04 MST")})
		}
	}

	switch in.GeographicScope {
	case geoscope.Global:
		factors = append(factors, Factor{Name: "geographic_scope", Weight: 0.2, Detail: string(geoscope.Global)})
	case geoscope.Regional:
		factors = append(factors, Factor{Name: "geographic_scope", Weight: 0.1, Detail: string(geoscope.Regional)})
	}

	switch n := in.UserReports; {
	case n >= 1000:
		factors = append(factors, Factor{Name: "user_reports", Weight: 0.3, Detail: fmt.Sprintf("%d reports", n)})
	case n >= 100:
		factors = append(factors, Factor{Name: "user_reports", Weight: 0.2, Detail: fmt.Sprintf("%d reports", n)})
	case n >= 10:
		factors = append(factors, Factor{Name: "user_reports", Weight: 0.1, Detail: fmt.Sprintf("%d reports", n)})
	}

	for _, kw := range impactKeywords {
		if kw.pattern.MatchString(text) {
			factors = append(factors, Factor{Name: "user_impact", Weight: kw.weight, Detail: kw.label})
			break
		}
	}

	return factors
}

// selectTier walks the thresholds in priority order. A tier below its
// threshold is never chosen even if it has the highest score.
func selectTier(s Scores) (models.Severity, float64) {
	switch {
	case s.Critical >= CriticalThreshold:
		return models.SeverityCritical, s.Critical
	case s.Major >= MajorThreshold:
		return models.SeverityMajor, s.Major
	case s.Minor >= MinorThreshold:
		return models.SeverityMinor, s.Minor
	}
	return models.SeverityMinor, s.Minor
}

func confidence(score float64) int {
	c := int(math.Round(math.Max(0, math.Min(1, score)) * 100))
	if c < confidenceFloor {
		c = confidenceFloor
	}
	return c
}

func reasoning(text string) string {
	var found []string
	for _, d := range diagnostics {
		if d.pattern.MatchString(text) {
			found = append(found, d.phrase)
		}
	}
	if len(found) == 0 {
		return "no strong severity indicators"
	}
	return strings.Join(found, "; ")
}

func roundScores(s Scores) Scores {
	return Scores{Critical: round(s.Critical), Major: round(s.Major), Minor: round(s.Minor)}
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
