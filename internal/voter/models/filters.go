package models

import "time"

// Filters are the caller-supplied narrowing criteria applied after the
// visibility predicate. Nil/zero fields mean "no constraint".
type Filters struct {
	ActiveOnly    bool
	SupportLevel  *SupportLevel
	ContactStatus *ContactStatus
	Priority      *Priority
}

// Page is offset pagination. Listing order is always newest-first.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPageSize bounds unpaginated listing requests.
const DefaultPageSize = 50

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > 500 {
		p.Limit = 500
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Statistics aggregates counts over the viewer's visible set only, so a
// coordinator's dashboard numbers never leak invisible records.
type Statistics struct {
	Total           int
	Active          int
	Deleted         int
	BySupportLevel  map[SupportLevel]int
	ByContactStatus map[ContactStatus]int
}

// DayCount is one day's insertion activity.
type DayCount struct {
	Day   time.Time
	Count int
}

// DuplicateGroup reports records sharing a phone number. Duplicates are
// tolerated (independent canvassers may record the same person); the group is
// reported, never blocked.
type DuplicateGroup struct {
	Phone    string
	Count    int
	VoterIDs []string
}
