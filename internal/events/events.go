// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"previdas_backend/internal/leads/domain"
	"previdas_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// LeadQualified is published once per qualification transition: when a
// contact crosses into qualified from any other status. Confirming messages
// for an already qualified contact never republish it.
type LeadQualified struct {
	BaseEvent
	Identity    string `json:"identity"`
	Name        string `json:"name,omitempty"`
	Score       int    `json:"score"`
	SignalScore int    `json:"signalScore"`
	Source      string `json:"source,omitempty"`
}

func (e LeadQualified) EventName() string { return "leads.lead.qualified" }

// NewLeadQualified builds the event from the freshly persisted contact.
func NewLeadQualified(contact *domain.Contact, signalScore int) LeadQualified {
	return LeadQualified{
		BaseEvent:   NewBaseEvent(),
		Identity:    contact.Identity,
		Name:        contact.Name,
		Score:       contact.Score,
		SignalScore: signalScore,
		Source:      contact.Source,
	}
}

// LeadRegistered is published when a lead is first created outside the
// message pipeline (site form, manual entry). Refreshes of an existing
// lead do not re-emit it.
type LeadRegistered struct {
	BaseEvent
	Identity string `json:"identity"`
	Name     string `json:"name,omitempty"`
	Source   string `json:"source,omitempty"`
}

func (e LeadRegistered) EventName() string { return "leads.lead.registered" }
