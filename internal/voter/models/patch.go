package models

import "time"

// CreateInput carries everything needed to create a voter. The ownership
// snapshot is mandatory; LegacyCityID/LegacyNeighborhoodID exist only so the
// no-geographic-foreign-keys guard can reject payloads that still carry
// relational place ids from the pre-governance schema.
type CreateInput struct {
	FullName    string
	Phone       string
	NationalID  string
	Email       string
	DateOfBirth *time.Time
	Gender      string

	Address      string
	City         string
	Neighborhood string

	SupportLevel  SupportLevel
	ContactStatus ContactStatus
	Priority      Priority
	Notes         string

	Ownership

	// Rejected by guard.NoGeographicForeignKeys when non-empty.
	LegacyCityID         string
	LegacyNeighborhoodID string
}

// UpdatePatch is a partial update: nil pointer means "field not present in
// the patch". Ownership fields are deliberately absent: they are immutable
// after creation.
type UpdatePatch struct {
	FullName    *string
	Phone       *string
	NationalID  *string
	Email       *string
	DateOfBirth *time.Time
	Gender      *string

	Address      *string
	City         *string
	Neighborhood *string

	SupportLevel    *SupportLevel
	ContactStatus   *ContactStatus
	Priority        *Priority
	Notes           *string
	LastContactedAt *time.Time

	AssignedCityID   *string
	AssignedCityName *string
}

// FieldChange is the diff of a single field, the unit of the edit history.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// Changes diffs the patch against the current record and returns one change
// per field that is present in the patch AND actually different. No-op fields
// produce no change, so they produce no history rows.
func (p UpdatePatch) Changes(current Voter) []FieldChange {
	var out []FieldChange

	add := func(field, oldV, newV string) {
		if oldV != newV {
			out = append(out, FieldChange{Field: field, OldValue: oldV, NewValue: newV})
		}
	}

	if p.FullName != nil {
		add(FieldFullName, current.FullName, *p.FullName)
	}
	if p.Phone != nil {
		add(FieldPhone, current.Phone, *p.Phone)
	}
	if p.NationalID != nil {
		add(FieldNationalID, current.NationalID, *p.NationalID)
	}
	if p.Email != nil {
		add(FieldEmail, current.Email, *p.Email)
	}
	if p.DateOfBirth != nil {
		add(FieldDateOfBirth, formatTime(current.DateOfBirth), formatTime(p.DateOfBirth))
	}
	if p.Gender != nil {
		add(FieldGender, current.Gender, *p.Gender)
	}
	if p.Address != nil {
		add(FieldAddress, current.Address, *p.Address)
	}
	if p.City != nil {
		add(FieldCity, current.City, *p.City)
	}
	if p.Neighborhood != nil {
		add(FieldNeighborhood, current.Neighborhood, *p.Neighborhood)
	}
	if p.SupportLevel != nil {
		add(FieldSupportLevel, string(current.SupportLevel), string(*p.SupportLevel))
	}
	if p.ContactStatus != nil {
		add(FieldContactStatus, string(current.ContactStatus), string(*p.ContactStatus))
	}
	if p.Priority != nil {
		add(FieldPriority, string(current.Priority), string(*p.Priority))
	}
	if p.Notes != nil {
		add(FieldNotes, current.Notes, *p.Notes)
	}
	if p.LastContactedAt != nil {
		add(FieldLastContactedAt, formatTime(current.LastContactedAt), formatTime(p.LastContactedAt))
	}
	if p.AssignedCityID != nil {
		add(FieldAssignedCityID, current.AssignedCityID, *p.AssignedCityID)
	}
	if p.AssignedCityName != nil {
		add(FieldAssignedCityName, current.AssignedCityName, *p.AssignedCityName)
	}

	return out
}

// Apply returns a copy of current with every present patch field applied.
func (p UpdatePatch) Apply(current Voter) Voter {
	v := current

	if p.FullName != nil {
		v.FullName = *p.FullName
	}
	if p.Phone != nil {
		v.Phone = *p.Phone
	}
	if p.NationalID != nil {
		v.NationalID = *p.NationalID
	}
	if p.Email != nil {
		v.Email = *p.Email
	}
	if p.DateOfBirth != nil {
		dob := *p.DateOfBirth
		v.DateOfBirth = &dob
	}
	if p.Gender != nil {
		v.Gender = *p.Gender
	}
	if p.Address != nil {
		v.Address = *p.Address
	}
	if p.City != nil {
		v.City = *p.City
	}
	if p.Neighborhood != nil {
		v.Neighborhood = *p.Neighborhood
	}
	if p.SupportLevel != nil {
		v.SupportLevel = *p.SupportLevel
	}
	if p.ContactStatus != nil {
		v.ContactStatus = *p.ContactStatus
	}
	if p.Priority != nil {
		v.Priority = *p.Priority
	}
	if p.Notes != nil {
		v.Notes = *p.Notes
	}
	if p.LastContactedAt != nil {
		t := *p.LastContactedAt
		v.LastContactedAt = &t
	}
	if p.AssignedCityID != nil {
		v.AssignedCityID = *p.AssignedCityID
	}
	if p.AssignedCityName != nil {
		v.AssignedCityName = *p.AssignedCityName
	}

	return v
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
