package models

import (
	"time"
)

// SupportLevel captures the canvassed person's declared stance.
type SupportLevel string

const (
	SupportSupporter   SupportLevel = "supporter"
	SupportUndecided   SupportLevel = "undecided"
	SupportOpposed     SupportLevel = "opposed"
	SupportUnreachable SupportLevel = "unreachable"
)

// ValidSupportLevel reports whether s is one of the known enum values.
func ValidSupportLevel(s SupportLevel) bool {
	switch s {
	case SupportSupporter, SupportUndecided, SupportOpposed, SupportUnreachable:
		return true
	}
	return false
}

// ContactStatus tracks the outreach state for a voter.
type ContactStatus string

const (
	ContactNotContacted ContactStatus = "not_contacted"
	ContactAttempted    ContactStatus = "attempted"
	ContactContacted    ContactStatus = "contacted"
	ContactRefused      ContactStatus = "refused"
)

func ValidContactStatus(s ContactStatus) bool {
	switch s {
	case ContactNotContacted, ContactAttempted, ContactContacted, ContactRefused:
		return true
	}
	return false
}

// Priority ranks a voter for follow-up work.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// Ownership is the immutable inserter snapshot stamped on every voter at
// creation. Names are stored by value so the record stays legible even if the
// inserting account is later renamed or deactivated.
type Ownership struct {
	InsertedByUserID     string
	InsertedByName       string
	InsertedByRole       Role
	InserterNeighborhood string
	InserterCity         string
}

// Voter is a canvassed person record. Geography is free text on purpose:
// a voter belongs to the person who recorded them, never to an administrative
// unit, so no place foreign keys exist anywhere on this struct.
type Voter struct {
	ID string

	FullName    string
	Phone       string
	NationalID  string
	Email       string
	DateOfBirth *time.Time
	Gender      string

	Address      string
	City         string
	Neighborhood string

	SupportLevel    SupportLevel
	ContactStatus   ContactStatus
	Priority        Priority
	Notes           string
	LastContactedAt *time.Time

	Ownership

	// Reassignment override, set when a higher-level actor reroutes the
	// record to another city's operation.
	AssignedCityID   string
	AssignedCityName string

	IsActive        bool
	DeletedAt       *time.Time
	DeletedByUserID string

	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Deleted reports whether the record is soft-deleted.
func (v Voter) Deleted() bool {
	return !v.IsActive && v.DeletedAt != nil
}
