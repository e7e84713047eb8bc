// Package export renders voters and edit history as CSV. Formatting only,
// no I/O and no filtering; the service decides what may be exported.
//
// Known limitation, kept on purpose: rows are comma-joined without quoting or
// escaping, so a value containing a comma or newline corrupts its row. This
// is the exact shape the downstream spreadsheet tooling has consumed since
// the first campaign season; do not switch to encoding/csv quoting without
// coordinating with those consumers.
package export

import (
	"strings"
	"time"

	"canvass/internal/voter/models"
)

// Hebrew field labels, matching the campaign UI.
var voterHeader = []string{
	"שם מלא",     // full name
	"טלפון",      // phone
	"תעודת זהות", // national id
	"אימייל",     // email
	"רמת תמיכה",  // support level
	"סטטוס קשר",  // contact status
	"שם המכניס",  // inserter name
	"תפקיד המכניס", // inserter role
	"תאריך הכנסה", // insertion date
}

var historyHeader = []string{
	"שדה",      // field
	"ערך קודם", // old value
	"ערך חדש",  // new value
	"שם העורך", // editor name
	"תפקיד העורך", // editor role
	"תאריך עריכה", // edit date
}

const dateLayout = "02/01/2006"

// Voters renders the header row plus one row per voter.
func Voters(voters []models.Voter) string {
	var b strings.Builder
	writeRow(&b, voterHeader)
	for _, v := range voters {
		writeRow(&b, []string{
			v.FullName,
			v.Phone,
			v.NationalID,
			v.Email,
			string(v.SupportLevel),
			string(v.ContactStatus),
			v.InsertedByName,
			string(v.InsertedByRole),
			v.InsertedAt.Format(dateLayout),
		})
	}
	return b.String()
}

// History renders the header row plus one row per edit-history entry.
func History(entries []models.EditHistory) string {
	var b strings.Builder
	writeRow(&b, historyHeader)
	for _, e := range entries {
		writeRow(&b, []string{
			e.Field,
			e.OldValue,
			e.NewValue,
			e.EditorName,
			string(e.EditorRole),
			e.EditedAt.Format(dateLayout + " 15:04"),
		})
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString(strings.Join(cells, ","))
	b.WriteString("\n")
}

// Filename suggests an export file name stamped with the given time.
func Filename(prefix string, t time.Time) string {
	return prefix + "-" + t.Format("2006-01-02") + ".csv"
}
