// Package domain provides core business rules for the leads bounded context.
package domain

import "time"

// Status is the qualification status of a lead.
type Status string

const (
	// StatusNew is the bootstrap status for a contact that has never been
	// processed. It is never re-entered once left.
	StatusNew       Status = "new"
	StatusCold      Status = "cold"
	StatusWarm      Status = "warm"
	StatusQualified Status = "qualified"
)

var knownStatuses = map[Status]struct{}{
	StatusNew:       {},
	StatusCold:      {},
	StatusWarm:      {},
	StatusQualified: {},
}

// IsKnownStatus reports whether the string is a valid lead status.
func IsKnownStatus(status string) bool {
	_, ok := knownStatuses[Status(status)]
	return ok
}

// Contact is one lead, keyed by its normalized phone identity.
type Contact struct {
	Identity  string    `json:"identity"`
	Name      string    `json:"name,omitempty"`
	Status    Status    `json:"status"`
	Score     int       `json:"score"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewContact synthesizes the default record for a first-ever interaction.
// A missing contact is a policy case, not an error.
func NewContact(identity string) *Contact {
	now := time.Now().UTC()
	return &Contact{
		Identity:  identity,
		Status:    StatusNew,
		Score:     0,
		Source:    "whatsapp",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ClampScore bounds an engine-driven score to [10, 100]. Only bootstrap
// contacts may sit below the floor, and only until their first message.
func ClampScore(score int) int {
	if score < 10 {
		return 10
	}
	if score > 100 {
		return 100
	}
	return score
}
