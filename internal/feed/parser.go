package feed

import (
	"encoding/xml"
	"errors"
	"strings"

	"golang.org/x/net/html/charset"

	apperrors "github.com/rajasatyajit/StatusWatch/internal/errors"
	"github.com/rajasatyajit/StatusWatch/internal/models"
)

var errEmptyDocument = errors.New("empty document")

// Format is the feed dialect chosen by Detect.
type Format int

const (
	FormatUnknown Format = iota
	FormatRSS
	FormatAtom
)

func (f Format) String() string {
	switch f {
	case FormatRSS:
		return "rss"
	case FormatAtom:
		return "atom"
	}
	return "unknown"
}

// ParseResult is the outcome of parsing one feed document.
type ParseResult struct {
	Format Format
	Items  []models.RawFeedItem
}

// document covers RSS 2.0 (items under channel), RSS 1.0/RDF (items at the
// root) and Atom (entries at the root) in one decode.
type document struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
	Items   []rssItem   `xml:"item"`
	Entries []atomEntry `xml:"entry"`
}

const (
	nsRSS10       = "http://purl.org/rss/1.0/"
	nsRSS09       = "http://my.netscape.com/rdf/simple/0.9/"
	nsUserland    = "http://backend.userland.com/rss2"
	nsDublinCore  = "http://purl.org/dc/elements/1.1/"
	nsContentMods = "http://purl.org/rss/1.0/modules/content/"
)

// rssItem is decoded element by element because encoding/xml matches
// struct tags by local name in any namespace, which lets media:title or
// atom:link overwrite the item's own title and link.
type rssItem struct {
	Title       string
	Link        string
	PubDate     string
	Date        string
	Description string
	Encoded     string
}

func (it *rssItem) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var text string
			if err := d.DecodeElement(&text, &t); err != nil {
				return err
			}
			it.set(t.Name, text)
		case xml.EndElement:
			return nil
		}
	}
}

// set keeps the first non-empty value per field.
func (it *rssItem) set(name xml.Name, value string) {
	var field *string
	switch {
	case isRSSSpace(name.Space):
		switch name.Local {
		case "title":
			field = &it.Title
		case "link":
			field = &it.Link
		case "pubDate":
			field = &it.PubDate
		case "description":
			field = &it.Description
		}
	case name.Local == "date" && (name.Space == nsDublinCore || name.Space == "dc"):
		field = &it.Date
	case name.Local == "encoded" && (name.Space == nsContentMods || name.Space == "content"):
		field = &it.Encoded
	}
	if field != nil && strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// isRSSSpace reports whether an element belongs to the item itself rather
// than to an extension module.
func isRSSSpace(space string) bool {
	switch space {
	case "", nsRSS10, nsRSS09, nsUserland:
		return true
	}
	return false
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Updated   string     `xml:"updated"`
	Published string     `xml:"published"`
	Summary   atomText   `xml:"summary"`
	Content   atomText   `xml:"content"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Text string `xml:",chardata"`
}

// atomText holds both the escaped character data and the raw inner XML so
// that type="xhtml" content still yields text.
type atomText struct {
	Text  string `xml:",chardata"`
	Inner string `xml:",innerxml"`
}

func (t atomText) value() string {
	if s := strings.TrimSpace(t.Text); s != "" {
		return s
	}
	return strings.TrimSpace(t.Inner)
}

// Detect picks the feed dialect. Any item wins over entries.
func (d *document) Detect() Format {
	switch {
	case len(d.Channel.Items) > 0 || len(d.Items) > 0:
		return FormatRSS
	case len(d.Entries) > 0:
		return FormatAtom
	}
	return FormatUnknown
}

// Parse decodes an RSS or Atom document into at most maxItems raw items.
// A well-formed document without items or entries yields an empty result.
func Parse(raw string, maxItems int) (ParseResult, error) {
	body := strings.TrimLeft(raw, "\ufeff \t\r\n")
	if body == "" {
		return ParseResult{}, apperrors.ParseError{Format: "xml", Err: errEmptyDocument}
	}

	var doc document
	dec := xml.NewDecoder(strings.NewReader(body))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return ParseResult{}, apperrors.ParseError{Format: "xml", Err: err}
	}

	res := ParseResult{Format: doc.Detect()}
	switch res.Format {
	case FormatRSS:
		items := doc.Channel.Items
		if len(items) == 0 {
			items = doc.Items
		}
		res.Items = collect(len(items), maxItems, func(i int) models.RawFeedItem {
			return items[i].raw()
		})
	case FormatAtom:
		res.Items = collect(len(doc.Entries), maxItems, func(i int) models.RawFeedItem {
			return doc.Entries[i].raw()
		})
	default:
		res.Items = []models.RawFeedItem{}
	}
	return res, nil
}

// collect takes the first maxItems elements and drops those without a title.
func collect(n, maxItems int, at func(int) models.RawFeedItem) []models.RawFeedItem {
	if maxItems > 0 && n > maxItems {
		n = maxItems
	}
	out := make([]models.RawFeedItem, 0, n)
	for i := 0; i < n; i++ {
		item := at(i)
		if item.Title == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (it rssItem) raw() models.RawFeedItem {
	return models.RawFeedItem{
		Title:       StripHTML(it.Title),
		Link:        strings.TrimSpace(it.Link),
		PublishedAt: firstNonEmpty(it.PubDate, it.Date),
		Description: StripHTML(firstNonEmpty(it.Description, it.Encoded)),
	}
}

func (e atomEntry) raw() models.RawFeedItem {
	return models.RawFeedItem{
		Title:       StripHTML(e.Title),
		Link:        e.link(),
		PublishedAt: firstNonEmpty(e.Updated, e.Published),
		Description: StripHTML(firstNonEmpty(e.Summary.value(), e.Content.value())),
	}
}

// link prefers an alternate href, then any href, then element text.
func (e atomEntry) link() string {
	for _, l := range e.Links {
		if l.Href != "" && (l.Rel == "" || l.Rel == "alternate") {
			return strings.TrimSpace(l.Href)
		}
	}
	for _, l := range e.Links {
		if l.Href != "" {
			return strings.TrimSpace(l.Href)
		}
	}
	for _, l := range e.Links {
		if s := strings.TrimSpace(l.Text); s != "" {
			return s
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
