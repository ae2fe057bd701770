package providers

import (
	"sort"
	"strings"

	"github.com/rajasatyajit/StatusWatch/internal/models"
)

// FeedFormat is a hint for how a provider publishes status. XML feeds are
// still auto-detected as RSS or Atom.
type FeedFormat string

const (
	FormatRSS  FeedFormat = "rss"
	FormatAtom FeedFormat = "atom"
	FormatJSON FeedFormat = "json"
)

// IsXML reports whether the format is decoded by the XML parser.
func (f FeedFormat) IsXML() bool {
	return f != FormatJSON
}

// Provider is one status source in the catalog.
type Provider struct {
	ID       models.Provider   `mapstructure:"id" json:"id" validate:"required,max=64"`
	Name     string            `mapstructure:"name" json:"name" validate:"required,max=100"`
	URL      string            `mapstructure:"url" json:"url" validate:"required,http_url"`
	Format   FeedFormat        `mapstructure:"format" json:"format" validate:"omitempty,oneof=rss atom json"`
	Aliases  []string          `mapstructure:"aliases" json:"aliases,omitempty"`
	Headers  map[string]string `mapstructure:"headers" json:"-"`
	Disabled bool              `mapstructure:"disabled" json:"disabled,omitempty"`
}

// Catalog is the set of known providers.
type Catalog struct {
	Providers []Provider `mapstructure:"providers" validate:"dive"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{Providers: []Provider{
		{ID: models.ProviderCloudflare, Name: "Cloudflare", URL: "https://www.cloudflarestatus.com/history.atom", Format: FormatAtom},
		{ID: models.ProviderOkta, Name: "Okta", URL: "https://feeds.feedburner.com/OktaTrustRSS", Format: FormatRSS},
		{ID: models.ProviderZscaler, Name: "Zscaler", URL: "https://trust.zscaler.com/rss-feed", Format: FormatRSS, Aliases: []string{"zia", "zpa"}},
		{ID: models.ProviderSendGrid, Name: "SendGrid", URL: "https://status.sendgrid.com/history.rss", Format: FormatRSS, Aliases: []string{"twilio sendgrid"}},
		{ID: models.ProviderSlack, Name: "Slack", URL: "https://slack-status.com/feed/rss", Format: FormatRSS},
		{ID: models.ProviderDatadog, Name: "Datadog", URL: "https://status.datadoghq.com/history.rss", Format: FormatRSS},
		{ID: models.ProviderAWS, Name: "AWS", URL: "https://status.aws.amazon.com/rss/all.rss", Format: FormatRSS, Aliases: []string{"amazon web services", "amazon"}},
	}}
}

// Enabled returns providers that are not disabled, in catalog order.
func (c *Catalog) Enabled() []Provider {
	out := make([]Provider, 0, len(c.Providers))
	for _, p := range c.Providers {
		if p.Disabled {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Lookup finds a provider by id.
func (c *Catalog) Lookup(id models.Provider) (Provider, bool) {
	for _, p := range c.Providers {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// Merge overlays other onto c by id: matching entries are replaced, new
// entries are appended.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	out := &Catalog{Providers: append([]Provider(nil), c.Providers...)}
	for _, p := range other.Providers {
		replaced := false
		for i := range out.Providers {
			if out.Providers[i].ID == p.ID {
				out.Providers[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			out.Providers = append(out.Providers, p)
		}
	}
	return out
}

// MatchService maps a free-form service name from a user report to a
// catalog provider by id, display name or alias, ignoring case.
func (c *Catalog) MatchService(name string) (models.Provider, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}
	for _, p := range c.Providers {
		if needle == string(p.ID) || needle == strings.ToLower(p.Name) {
			return p.ID, true
		}
		for _, alias := range p.Aliases {
			if needle == strings.ToLower(alias) {
				return p.ID, true
			}
		}
	}
	// Longest names first so "sendgrid" is not shadowed by a shorter id.
	candidates := append([]Provider(nil), c.Providers...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].ID) > len(candidates[j].ID)
	})
	for _, p := range candidates {
		if containsWord(needle, string(p.ID)) || containsWord(needle, strings.ToLower(p.Name)) {
			return p.ID, true
		}
	}
	return "", false
}

func containsWord(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if f == word {
			return true
		}
	}
	return false
}
