package feed

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "github.com/rajasatyajit/StatusWatch/internal/errors"
	"github.com/rajasatyajit/StatusWatch/internal/models"
)

// ParseStatusJSON converts a status API document into raw items. It accepts
// Statuspage incidents.json / summary.json documents and the Slack status
// history (a top-level array) or current-status object.
func ParseStatusJSON(raw string, maxItems int) ([]models.RawFeedItem, error) {
	body := strings.TrimLeft(raw, "\ufeff \t\r\n")
	if !gjson.Valid(body) {
		return nil, apperrors.ParseError{Format: "json", Err: errors.New("invalid JSON document")}
	}

	doc := gjson.Parse(body)
	var list []gjson.Result
	switch {
	case doc.IsArray():
		list = doc.Array()
	case doc.Get("incidents").IsArray():
		list = doc.Get("incidents").Array()
	case doc.Get("active_incidents").IsArray():
		list = doc.Get("active_incidents").Array()
	default:
		return []models.RawFeedItem{}, nil
	}

	if maxItems > 0 && len(list) > maxItems {
		list = list[:maxItems]
	}

	items := make([]models.RawFeedItem, 0, len(list))
	for _, entry := range list {
		item := models.RawFeedItem{
			Title:       StripHTML(firstString(entry, "name", "title")),
			Link:        firstString(entry, "shortlink", "url", "link"),
			PublishedAt: firstString(entry, "updated_at", "date_updated", "created_at", "date_created"),
			Description: StripHTML(firstString(entry, "incident_updates.0.body", "notes.0.body", "body")),
		}
		if item.Title == "" {
			continue
		}
		if status := entry.Get("status").String(); status != "" && !strings.Contains(strings.ToLower(item.Description), status) {
			item.Description = strings.TrimSpace(item.Description + " (" + status + ")")
		}
		items = append(items, item)
	}
	return items, nil
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := strings.TrimSpace(r.Get(p).String()); v != "" {
			return v
		}
	}
	return ""
}
