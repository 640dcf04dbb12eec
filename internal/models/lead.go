package models

import (
	"strings"
	"time"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusProposal  LeadStatus = "proposal"
	LeadStatusConverted LeadStatus = "converted"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusProposal, LeadStatusConverted:
		return true
	}
	return false
}

type Lead struct {
	ID        string
	OwnerID   string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Company   string
	Position  *string
	Status    LeadStatus
	Source    string
	Value     float64
	Notes     *string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the split name fields for display and for conversion into a
// client record, which stores a single name.
func (l Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// LeadUpdate is a partial update; nil fields are left unchanged.
type LeadUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Company   *string
	Position  *string
	Status    *LeadStatus
	Source    *string
	Value     *float64
	Notes     *string
	Tags      []string
}
