// Package audit captures operational events emitted by the voter repository.
// It complements, never replaces, the per-field edit history: the history is
// the authoritative record of what changed, audit events are the operational
// trail of who did what and when.
package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Action    Action
	VoterID   string
	ActorID   string
	ActorName string
	ActorRole string
	RequestID string
	// Detail carries action-specific context, e.g. the duplicate count for
	// duplicate_phone_detected.
	Detail string
}

// Action enumerates the audited repository operations.
type Action string

const (
	ActionVoterCreated       Action = "voter_created"
	ActionVoterUpdated       Action = "voter_updated"
	ActionVoterDeleted       Action = "voter_deleted"
	ActionVoterRestored      Action = "voter_restored"
	ActionDuplicateDetected  Action = "duplicate_phone_detected"
	ActionExportGenerated    Action = "export_generated"
	ActionDeletedListViewed  Action = "deleted_list_viewed"
	ActionVisibilityDenied   Action = "visibility_denied"
)
