package classifier

import (
	"strings"

	"github.com/rajasatyajit/StatusWatch/internal/models"
	"github.com/rajasatyajit/StatusWatch/pkg/utils"
)

type rule struct {
	eventType models.EventType
	keywords  []string
}

// rules are checked in order and the first match wins, so "incident resolved"
// is a resolution rather than an incident.
var rules = []rule{
	{models.EventResolved, []string{"resolved", "fixed", "completed"}},
	{models.EventIncident, []string{"investigating", "ongoing", "incident"}},
	{models.EventMaintenance, []string{"maintenance", "scheduled", "update"}},
	{models.EventDegradation, []string{"degraded", "slow", "performance"}},
	{models.EventOutage, []string{"outage", "down", "unavailable"}},
}

// Classifier maps feed text to an event type
type Classifier struct{}

// New creates a new classifier instance
func New() *Classifier {
	return &Classifier{}
}

// Classify returns the event type for an item's title and description
func (c *Classifier) Classify(title, description string) models.EventType {
	return Classify(title, description)
}

// Classify returns the event type for an item's title and description
func Classify(title, description string) models.EventType {
	text := strings.ToLower(title + " " + description)
	for _, r := range rules {
		if utils.ContainsAny(text, r.keywords) {
			return r.eventType
		}
	}
	return models.EventUpdate
}
