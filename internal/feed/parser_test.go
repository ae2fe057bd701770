package feed

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/rajasatyajit/StatusWatch/internal/errors"
)

func rssWithItems(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>Status</title>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<item><title>Item %d</title><link>https://status.example.com/i/%d</link><pubDate>Mon, 15 Jan 2024 10:00:00 GMT</pubDate><description>desc %d</description></item>`, i, i, i)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func TestParse_RSSTruncation(t *testing.T) {
	tests := []struct {
		name     string
		items    int
		maxItems int
		expected int
	}{
		{name: "Fewer than max", items: 3, maxItems: 20, expected: 3},
		{name: "More than max", items: 30, maxItems: 20, expected: 20},
		{name: "Exactly max", items: 5, maxItems: 5, expected: 5},
		{name: "Zero items", items: 0, maxItems: 20, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse(rssWithItems(tt.items), tt.maxItems)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(res.Items) != tt.expected {
				t.Errorf("Expected %d items, got %d", tt.expected, len(res.Items))
			}
			if res.Items == nil {
				t.Errorf("Expected empty slice, got nil")
			}
		})
	}
}

func TestParse_RSSTruncationKeepsOrder(t *testing.T) {
	res, err := Parse(rssWithItems(10), 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for i, item := range res.Items {
		if item.Title != fmt.Sprintf("Item %d", i) {
			t.Errorf("Expected Item %d at position %d, got %s", i, i, item.Title)
		}
	}
}

func TestParse_RSSFields(t *testing.T) {
	raw := "\ufeff\n  " + `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Datadog Status</title>
    <item>
      <title>Elevated API latency</title>
      <link>https://status.datadoghq.com/incidents/abc</link>
      <pubDate>Tue, 05 Mar 2024 14:30:00 +0000</pubDate>
      <description><![CDATA[<p>We are <b>investigating</b> elevated latency &amp; errors.</p>]]></description>
    </item>
    <item>
      <title>Log intake delays</title>
      <link>https://status.datadoghq.com/incidents/def</link>
      <dc:date>2024-03-04T10:00:00Z</dc:date>
      <content:encoded><![CDATA[<div>Delays&nbsp;in log intake</div>]]></content:encoded>
    </item>
    <item>
      <title>   </title>
      <description>untitled item is dropped</description>
    </item>
  </channel>
</rss>`

	res, err := Parse(raw, 20)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Format != FormatRSS {
		t.Errorf("Expected rss format, got %s", res.Format)
	}
	if len(res.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(res.Items))
	}

	first := res.Items[0]
	if first.Link != "https://status.datadoghq.com/incidents/abc" {
		t.Errorf("Unexpected link %s", first.Link)
	}
	if first.PublishedAt != "Tue, 05 Mar 2024 14:30:00 +0000" {
		t.Errorf("Unexpected date %s", first.PublishedAt)
	}
	if first.Description != "We are investigating elevated latency & errors." {
		t.Errorf("Unexpected description %q", first.Description)
	}

	second := res.Items[1]
	if second.PublishedAt != "2024-03-04T10:00:00Z" {
		t.Errorf("Expected dc:date fallback, got %s", second.PublishedAt)
	}
	if second.Description != "Delays in log intake" {
		t.Errorf("Expected content:encoded fallback, got %q", second.Description)
	}
}

func TestParse_RSSIgnoresExtensionElements(t *testing.T) {
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Acme Status</title>
    <atom:link href="https://status.acme.test/feed.rss" rel="self" type="application/rss+xml"/>
    <item>
      <title>Real title</title>
      <link>https://status.acme.test/incidents/1</link>
      <atom:link href="https://status.acme.test/feed.rss" rel="self"/>
      <media:title>Image caption</media:title>
      <pubDate>Tue, 05 Mar 2024 14:30:00 +0000</pubDate>
      <media:description>Thumbnail</media:description>
      <description>Investigating API errors</description>
    </item>
  </channel>
</rss>`

	res, err := Parse(raw, 20)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(res.Items))
	}

	item := res.Items[0]
	if item.Title != "Real title" {
		t.Errorf("Expected item title, got %q", item.Title)
	}
	if item.Link != "https://status.acme.test/incidents/1" {
		t.Errorf("Expected item link, got %q", item.Link)
	}
	if item.Description != "Investigating API errors" {
		t.Errorf("Expected item description, got %q", item.Description)
	}
}

func TestParse_RDF(t *testing.T) {
	raw := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns="http://purl.org/rss/1.0/" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel><title>x</title></channel>
  <item><title>RDF item</title><link>https://example.com/1</link><dc:date>2024-01-01T00:00:00Z</dc:date></item>
</rdf:RDF>`

	res, err := Parse(raw, 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Format != FormatRSS || len(res.Items) != 1 {
		t.Fatalf("Expected one rss item, got %s/%d", res.Format, len(res.Items))
	}
	if res.Items[0].PublishedAt != "2024-01-01T00:00:00Z" {
		t.Errorf("Unexpected date %s", res.Items[0].PublishedAt)
	}
}

func TestParse_Atom(t *testing.T) {
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Cloudflare Status</title>
  <entry>
    <title>Network performance issues in Frankfurt</title>
    <link rel="alternate" type="text/html" href="https://www.cloudflarestatus.com/incidents/xyz">https://ignored.example.com</link>
    <updated>2024-03-05T14:30:00Z</updated>
    <published>2024-03-05T13:00:00Z</published>
    <content type="html">&lt;p&gt;Monitoring a fix.&lt;/p&gt;</content>
  </entry>
  <entry>
    <title>Text link only</title>
    <link>https://example.com/text-link</link>
    <published>2024-03-01T00:00:00Z</published>
    <summary>Short summary</summary>
    <content>Longer content</content>
  </entry>
  <entry>
    <title>Self then alternate</title>
    <link rel="self" href="https://example.com/self"/>
    <link rel="alternate" href="https://example.com/alt"/>
  </entry>
</feed>`

	res, err := Parse(raw, 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Format != FormatAtom {
		t.Fatalf("Expected atom format, got %s", res.Format)
	}
	if len(res.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(res.Items))
	}

	tests := []struct {
		link, date, desc string
	}{
		{"https://www.cloudflarestatus.com/incidents/xyz", "2024-03-05T14:30:00Z", "Monitoring a fix."},
		{"https://example.com/text-link", "2024-03-01T00:00:00Z", "Short summary"},
		{"https://example.com/alt", "", ""},
	}
	for i, tt := range tests {
		item := res.Items[i]
		if item.Link != tt.link {
			t.Errorf("item %d: expected link %s, got %s", i, tt.link, item.Link)
		}
		if item.PublishedAt != tt.date {
			t.Errorf("item %d: expected date %s, got %s", i, tt.date, item.PublishedAt)
		}
		if item.Description != tt.desc {
			t.Errorf("item %d: expected description %q, got %q", i, tt.desc, item.Description)
		}
	}
}

func TestParse_EmptyFeedIsNotAnError(t *testing.T) {
	inputs := []string{
		`<rss version="2.0"><channel><title>Nothing here</title></channel></rss>`,
		`<feed xmlns="http://www.w3.org/2005/Atom"><title>Empty</title></feed>`,
		`<html><body>not a feed</body></html>`,
	}
	for _, raw := range inputs {
		res, err := Parse(raw, 20)
		if err != nil {
			t.Errorf("Expected no error for %q, got %v", raw, err)
		}
		if len(res.Items) != 0 {
			t.Errorf("Expected no items for %q, got %d", raw, len(res.Items))
		}
	}
}

func TestParse_ItemsWinOverEntries(t *testing.T) {
	raw := `<rss><channel><item><title>from item</title></item></channel><entry><title>from entry</title></entry></rss>`
	res, err := Parse(raw, 20)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Format != FormatRSS || len(res.Items) != 1 || res.Items[0].Title != "from item" {
		t.Errorf("Expected the rss item to be chosen, got %+v", res)
	}
}

func TestParse_MalformedXML(t *testing.T) {
	inputs := []string{
		`<rss><channel><item><title>broken</item></channel></rss>`,
		``,
		`   `,
	}
	for _, raw := range inputs {
		_, err := Parse(raw, 20)
		if err == nil {
			t.Errorf("Expected error for %q", raw)
			continue
		}
		var pe apperrors.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Expected ParseError, got %T", err)
		}
	}
}

func TestParse_MalformedDatePassesThrough(t *testing.T) {
	raw := `<rss><channel><item><title>x</title><pubDate>sometime last week</pubDate></item></channel></rss>`
	res, err := Parse(raw, 20)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Items[0].PublishedAt != "sometime last week" {
		t.Errorf("Expected raw date passthrough, got %q", res.Items[0].PublishedAt)
	}
}

func TestParse_NonUTF8Charset(t *testing.T) {
	raw := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><rss><channel><item><title>Caf\xe9 outage</title></item></channel></rss>"
	res, err := Parse(raw, 20)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Items[0].Title != "Café outage" {
		t.Errorf("Expected decoded title, got %q", res.Items[0].Title)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"<p>Hello</p><p>World</p>", "Hello World"},
		{"Fish &amp; chips", "Fish & chips"},
		{"  plain\n\ttext  ", "plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.out {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.out)
		}
	}
}
