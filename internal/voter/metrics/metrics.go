package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the voter feature's Prometheus metrics.
type Metrics struct {
	VotersCreated      prometheus.Counter
	VotersUpdated      prometheus.Counter
	VotersDeleted      prometheus.Counter
	VotersRestored     prometheus.Counter
	DuplicatesDetected prometheus.Counter
	VisibilityDenials  *prometheus.CounterVec
	HistoryRowsWritten prometheus.Counter
}

// New creates and registers the voter metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VotersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "canvass_voters_created_total",
			Help: "Total number of voter records created",
		}),
		VotersUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "canvass_voters_updated_total",
			Help: "Total number of voter record updates persisted",
		}),
		VotersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "canvass_voters_deleted_total",
			Help: "Total number of voter soft deletions",
		}),
		VotersRestored: factory.NewCounter(prometheus.CounterOpts{
			Name: "canvass_voters_restored_total",
			Help: "Total number of voter restorations",
		}),
		DuplicatesDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "canvass_duplicate_phones_detected_total",
			Help: "Total number of creations that matched an existing phone number",
		}),
		VisibilityDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canvass_visibility_denials_total",
			Help: "Total number of per-record visibility denials by viewer role",
		}, []string{"role"}),
		HistoryRowsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "canvass_edit_history_rows_total",
			Help: "Total number of edit history rows appended",
		}),
	}
}
