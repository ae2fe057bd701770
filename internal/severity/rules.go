package severity

import (
	"regexp"

	"github.com/rajasatyajit/StatusWatch/internal/models"
)

// Rule is a weighted indicator. Each occurrence of Pattern adds Weight to the
// tier score; weights may be negative.
type Rule struct {
	Pattern *regexp.Regexp
	Weight  float64
}

func rule(expr string, weight float64) Rule {
	return Rule{Pattern: regexp.MustCompile(`(?i)` + expr), Weight: weight}
}

// RuleSet holds the indicator table for each tier.
type RuleSet struct {
	Critical []Rule
	Major    []Rule
	Minor    []Rule
}

// DefaultRules is the built-in indicator table.
func DefaultRules() RuleSet {
	return RuleSet{
		Critical: []Rule{
			rule(`\b(complete|total|full)\s+(outage|failure)`, 0.9),
			rule(`\b(all|every)\s+(services?|systems?|regions?)\s+(are\s+)?(down|unavailable)`, 0.8),
			rule(`\bmajor\s+outage\b`, 0.8),
			rule(`\bdata\s+(loss|breach|corruption)\b`, 0.9),
			rule(`\bsecurity\s+(incident|breach)\b`, 0.7),
			rule(`\b(unavailable|inaccessible)\b`, 0.4),
			rule(`\bdown\b`, 0.3),
			rule(`\boutage\b`, 0.4),
		},
		Major: []Rule{
			rule(`\bpartial\s+outage\b`, 0.7),
			rule(`\bdegraded\s+performance\b`, 0.6),
			rule(`\belevated\s+(error|latency|errors)\b`, 0.5),
			rule(`\bincreased\s+(latency|errors|error\s+rates?)\b`, 0.5),
			rule(`\bdegrad(ed|ation)\b`, 0.4),
			rule(`\bsignificant(ly)?\s+(impact|delays?)\b`, 0.5),
			rule(`\bintermittent\b`, 0.3),
			rule(`\bservice\s+disruption\b`, 0.5),
		},
		Minor: []Rule{
			rule(`\bminor\b`, 0.5),
			rule(`\bslow(ness|er)?\b`, 0.3),
			rule(`\bdelay(s|ed)?\b`, 0.3),
			rule(`\bsome\s+users\b`, 0.3),
			rule(`\bscheduled\s+maintenance\b`, -0.2),
			rule(`\bmaintenance\b`, 0.2),
			rule(`\b(investigating|monitoring)\b`, 0.2),
			rule(`\blimited\s+impact\b`, 0.4),
		},
	}
}

var resolutionRegex = regexp.MustCompile(`(?i)\b(resolved|fixed|restored|recovered|completed)\b`)

// serviceWeights reflect blast radius: infrastructure and identity providers
// weigh more than monitoring tools.
var serviceWeights = map[models.Provider]float64{
	models.ProviderAWS:        0.2,
	models.ProviderCloudflare: 0.2,
	models.ProviderOkta:       0.15,
	models.ProviderZscaler:    0.15,
	models.ProviderSlack:      0.1,
	models.ProviderSendGrid:   0.05,
	models.ProviderDatadog:    0.05,
}

// ServiceWeight returns the blast-radius weight of p, zero for custom providers.
func ServiceWeight(p models.Provider) float64 {
	return serviceWeights[p]
}

type keywordBucket struct {
	pattern *regexp.Regexp
	weight  float64
	label   string
}

// impactKeywords are checked in order; the first match applies.
var impactKeywords = []keywordBucket{
	{regexp.MustCompile(`(?i)\ball\s+(users|customers)\b`), 0.2, "all users"},
	{regexp.MustCompile(`(?i)\b(many|most)\s+(users|customers)\b`), 0.1, "many users"},
	{regexp.MustCompile(`(?i)\bsome\s+(users|customers)\b`), 0.05, "some users"},
}

type diagnostic struct {
	pattern *regexp.Regexp
	phrase  string
}

var diagnostics = []diagnostic{
	{regexp.MustCompile(`(?i)\b(complete|total|full|major)\s+outage\b`), "complete service outage reported"},
	{regexp.MustCompile(`(?i)\bpartial\s+outage\b`), "partial outage reported"},
	{regexp.MustCompile(`(?i)\b(degraded|degradation|slow|latency)\b`), "performance degradation mentioned"},
	{regexp.MustCompile(`(?i)\b(errors?|failures?|failing)\b`), "errors or failures mentioned"},
	{regexp.MustCompile(`(?i)\b(security|breach|data\s+loss)\b`), "security or data integrity concern"},
	{regexp.MustCompile(`(?i)\bmaintenance\b`), "maintenance activity"},
	{regexp.MustCompile(`(?i)\b(investigating|identified|monitoring)\b`), "incident under investigation"},
	{regexp.MustCompile(`(?i)\b(resolved|fixed|restored|recovered)\b`), "issue reported as resolved"},
}
