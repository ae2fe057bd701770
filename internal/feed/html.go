package feed

import (
	"html"

	"github.com/microcosm-cc/bluemonday"

	"github.com/rajasatyajit/StatusWatch/pkg/utils"
)

var textPolicy = newTextPolicy()

func newTextPolicy() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}

// StripHTML removes markup from feed text, unescapes entities and collapses
// whitespace. The output is display text, not a safe-HTML guarantee.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	return utils.CollapseSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
