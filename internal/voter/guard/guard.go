// Package guard holds the invariant guards: pure, synchronous validation
// functions, one per non-negotiable business rule. Guards never touch
// storage; they fail loudly with a machine-readable invariant code in the
// error details so callers and logs can key off it.
package guard

import (
	"regexp"
	"time"

	"canvass/internal/voter/models"
	dErrors "canvass/pkg/domain-errors"
)

// Machine-readable invariant codes carried in error details.
const (
	InvOwnership  = "INV-V01"
	InvSoftDelete = "INV-V03"
	InvAuditTrail = "INV-V05"
)

var (
	// Regional mobile format: 05 prefix followed by eight digits.
	phonePattern = regexp.MustCompile(`^05\d{8}$`)
	// National id: fixed-length nine digit numeric string.
	idPattern = regexp.MustCompile(`^\d{9}$`)
)

// ValidPhone reports whether phone is a well-formed regional mobile number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidNationalID reports whether id is a well-formed national id.
func ValidNationalID(id string) bool {
	return idPattern.MatchString(id)
}

// VoterHasOwner enforces INV-V01: every voter carries a complete inserter
// snapshot. Ownership is immutable after creation, so this runs on create only.
func VoterHasOwner(o models.Ownership) error {
	if o.InsertedByUserID == "" || o.InsertedByName == "" || o.InsertedByRole == "" {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"voter must carry inserter id, name and role").
			Add("invariant", InvOwnership)
	}
	return nil
}

// NoGeographicForeignKeys enforces the relational half of INV-V01: a voter is
// never foreign-keyed to a place entity. The legacy id fields exist on the
// input solely so payloads that still carry them are rejected here instead of
// silently dropped.
func NoGeographicForeignKeys(in models.CreateInput) error {
	if in.LegacyCityID != "" || in.LegacyNeighborhoodID != "" {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"voter records must not reference place entities by id; use free-text geography").
			Add("invariant", InvOwnership)
	}
	return nil
}

// CreateVoter composes the creation-time guards: ownership, no geographic
// foreign keys, and field formats.
func CreateVoter(in models.CreateInput) error {
	if err := VoterHasOwner(in.Ownership); err != nil {
		return err
	}
	if err := NoGeographicForeignKeys(in); err != nil {
		return err
	}
	if !ValidPhone(in.Phone) {
		return dErrors.New(dErrors.CodeValidation, "phone must be a valid mobile number").
			Add("field", models.FieldPhone)
	}
	if in.NationalID != "" && !ValidNationalID(in.NationalID) {
		return dErrors.New(dErrors.CodeValidation, "national id must be nine digits").
			Add("field", models.FieldNationalID)
	}
	if in.SupportLevel != "" && !models.ValidSupportLevel(in.SupportLevel) {
		return dErrors.New(dErrors.CodeValidation, "unknown support level").
			Add("field", models.FieldSupportLevel)
	}
	if in.ContactStatus != "" && !models.ValidContactStatus(in.ContactStatus) {
		return dErrors.New(dErrors.CodeValidation, "unknown contact status").
			Add("field", models.FieldContactStatus)
	}
	if in.Priority != "" && !models.ValidPriority(in.Priority) {
		return dErrors.New(dErrors.CodeValidation, "unknown priority").
			Add("field", models.FieldPriority)
	}
	return nil
}

// UpdateVoter validates a patch and the editing identity. Ownership is
// intentionally not revalidated here: it is immutable post-creation and the
// patch cannot express it.
func UpdateVoter(p models.UpdatePatch, editor models.Editor) error {
	if err := EditHistoryHasName(editor.UserID, editor.Name, editor.Role); err != nil {
		return err
	}
	if p.Phone != nil && !ValidPhone(*p.Phone) {
		return dErrors.New(dErrors.CodeValidation, "phone must be a valid mobile number").
			Add("field", models.FieldPhone)
	}
	if p.NationalID != nil && *p.NationalID != "" && !ValidNationalID(*p.NationalID) {
		return dErrors.New(dErrors.CodeValidation, "national id must be nine digits").
			Add("field", models.FieldNationalID)
	}
	if p.SupportLevel != nil && !models.ValidSupportLevel(*p.SupportLevel) {
		return dErrors.New(dErrors.CodeValidation, "unknown support level").
			Add("field", models.FieldSupportLevel)
	}
	if p.ContactStatus != nil && !models.ValidContactStatus(*p.ContactStatus) {
		return dErrors.New(dErrors.CodeValidation, "unknown contact status").
			Add("field", models.FieldContactStatus)
	}
	if p.Priority != nil && !models.ValidPriority(*p.Priority) {
		return dErrors.New(dErrors.CodeValidation, "unknown priority").
			Add("field", models.FieldPriority)
	}
	return nil
}

// EditHistoryHasName enforces INV-V05: no edit is ever persisted without a
// complete editor identity snapshot.
func EditHistoryHasName(editorID, editorName string, editorRole models.Role) error {
	if editorID == "" || editorName == "" || editorRole == "" {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"edit history requires editor id, name and role").
			Add("invariant", InvAuditTrail)
	}
	return nil
}

// SoftDeletePatch is the deterministic deletion patch produced by
// SoftDeleteOnly. Applying it is the only way a voter leaves the active set.
type SoftDeletePatch struct {
	IsActive        bool
	DeletedAt       time.Time
	DeletedByUserID string
}

// SoftDeleteOnly enforces INV-V03: deletion is a state transition, not a row
// removal, and must name the deleting actor.
func SoftDeleteOnly(deletedByUserID string, now time.Time) (SoftDeletePatch, error) {
	if deletedByUserID == "" {
		return SoftDeletePatch{}, dErrors.New(dErrors.CodeInvariantViolation,
			"soft delete requires the deleting actor id").
			Add("invariant", InvSoftDelete)
	}
	return SoftDeletePatch{IsActive: false, DeletedAt: now, DeletedByUserID: deletedByUserID}, nil
}

// NoHardDelete always fails. It exists so that any future attempt to add a
// physical-delete code path has to call a function whose only behavior is to
// reject.
func NoHardDelete() error {
	return dErrors.New(dErrors.CodeInvariantViolation,
		"physical deletion is forbidden; use soft delete").
		Add("invariant", InvSoftDelete)
}

// DuplicateInfo is the non-blocking duplicate report computed at create time.
type DuplicateInfo struct {
	HasDuplicates bool
	Count         int
}

// DuplicateDetection tolerates duplicate phone numbers: independent
// canvassers may record the same person. It reports, it never rejects.
func DuplicateDetection(phone string, existingCount int) DuplicateInfo {
	return DuplicateInfo{HasDuplicates: existingCount > 0, Count: existingCount}
}
