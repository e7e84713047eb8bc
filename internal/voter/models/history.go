package models

import "time"

// Field names used in edit history rows and update patches. These are the
// wire names, shared with the JSON API.
const (
	FieldFullName         = "fullName"
	FieldPhone            = "phone"
	FieldNationalID       = "nationalId"
	FieldEmail            = "email"
	FieldDateOfBirth      = "dateOfBirth"
	FieldGender           = "gender"
	FieldAddress          = "address"
	FieldCity             = "city"
	FieldNeighborhood     = "neighborhood"
	FieldSupportLevel     = "supportLevel"
	FieldContactStatus    = "contactStatus"
	FieldPriority         = "priority"
	FieldNotes            = "notes"
	FieldLastContactedAt  = "lastContactedAt"
	FieldAssignedCityID   = "assignedCityId"
	FieldAssignedCityName = "assignedCityName"
)

// EditHistory is one append-only row per changed field per update. Editor
// identity is a frozen snapshot: it records who the editor was at edit time
// and is never re-derived by joining to a live user table.
type EditHistory struct {
	ID           string
	VoterID      string
	EditorUserID string
	EditorName   string
	EditorRole   Role
	Field        string
	OldValue     string
	NewValue     string
	EditedAt     time.Time
}

// Editor is the identity performing an update, captured into every history
// row it produces.
type Editor struct {
	UserID string
	Name   string
	Role   Role
}
