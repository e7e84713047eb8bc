package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"

	"canvass/internal/visibility"
	"canvass/internal/voter/models"
	"canvass/pkg/platform/sentinel"
)

// Postgres persists voters in PostgreSQL. This store is pure I/O; guards and
// visibility decisions belong to the service and engine. The predicate
// translation in predicateSQL is the SQL twin of visibility.Matches and must
// stay equivalent clause-for-clause.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const voterColumns = `
	id, full_name, phone, national_id, email, date_of_birth, gender,
	address, city, neighborhood,
	support_level, contact_status, priority, notes, last_contacted_at,
	inserted_by_user_id, inserted_by_name, inserted_by_role, inserter_neighborhood, inserter_city,
	assigned_city_id, assigned_city_name,
	is_active, deleted_at, deleted_by_user_id,
	inserted_at, updated_at`

// predicateSQL translates a visibility predicate into one SQL condition over
// the voters table (aliased v) plus its bound arguments, starting at
// argument index next.
func predicateSQL(p visibility.Predicate, next int) (string, []any) {
	if p.All {
		return "TRUE", nil
	}
	if len(p.Clauses) == 0 {
		// Fail-closed: no policy, no rows.
		return "FALSE", nil
	}

	var parts []string
	var args []any
	for _, c := range p.Clauses {
		switch {
		case c.InsertedBy != "":
			parts = append(parts, fmt.Sprintf("v.inserted_by_user_id = $%d", next))
			args = append(args, c.InsertedBy)
			next++
		case c.InserterAreaManagerID != "":
			parts = append(parts, fmt.Sprintf(
				"v.inserted_by_user_id IN (SELECT user_id FROM org_users WHERE area_manager_id = $%d)", next))
			args = append(args, c.InserterAreaManagerID)
			next++
		case c.InserterCityID != "":
			parts = append(parts, fmt.Sprintf(
				"v.inserted_by_user_id IN (SELECT user_id FROM org_users WHERE city_id = $%d)", next))
			args = append(args, c.InserterCityID)
			next++
		case c.InserterCoordinatorID != "":
			parts = append(parts, fmt.Sprintf(
				"v.inserted_by_user_id IN (SELECT user_id FROM org_users WHERE role = 'field_worker' AND activist_coordinator_id = $%d)", next))
			args = append(args, c.InserterCoordinatorID)
			next++
		}
	}
	if len(parts) == 0 {
		return "FALSE", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// filterSQL appends caller filter conditions, continuing argument numbering.
func filterSQL(f models.Filters, next int) (string, []any) {
	var parts []string
	var args []any
	if f.ActiveOnly {
		parts = append(parts, "v.is_active")
	}
	if f.SupportLevel != nil {
		parts = append(parts, fmt.Sprintf("v.support_level = $%d", next))
		args = append(args, string(*f.SupportLevel))
		next++
	}
	if f.ContactStatus != nil {
		parts = append(parts, fmt.Sprintf("v.contact_status = $%d", next))
		args = append(args, string(*f.ContactStatus))
		next++
	}
	if f.Priority != nil {
		parts = append(parts, fmt.Sprintf("v.priority = $%d", next))
		args = append(args, string(*f.Priority))
		next++
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(parts, " AND "), args
}

func (s *Postgres) Insert(ctx context.Context, v models.Voter) error {
	query := `
		INSERT INTO voters (` + voterColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`
	_, err := s.db.ExecContext(ctx, query,
		v.ID, v.FullName, v.Phone, v.NationalID, v.Email, nullTime(v.DateOfBirth), v.Gender,
		v.Address, v.City, v.Neighborhood,
		string(v.SupportLevel), string(v.ContactStatus), string(v.Priority), v.Notes, nullTime(v.LastContactedAt),
		v.InsertedByUserID, v.InsertedByName, string(v.InsertedByRole), v.InserterNeighborhood, v.InserterCity,
		v.AssignedCityID, v.AssignedCityName,
		v.IsActive, nullTime(v.DeletedAt), v.DeletedByUserID,
		v.InsertedAt, v.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert voter: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id string) (models.Voter, error) {
	query := `SELECT ` + voterColumns + ` FROM voters v WHERE id = $1`
	v, err := scanVoter(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Voter{}, sentinel.ErrNotFound
		}
		return models.Voter{}, fmt.Errorf("find voter: %w", err)
	}
	return v, nil
}

func (s *Postgres) UpdateWithHistory(ctx context.Context, updated models.Voter, prevUpdatedAt time.Time, entries []models.EditHistory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin voter update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE voters SET
			full_name = $3, phone = $4, national_id = $5, email = $6, date_of_birth = $7, gender = $8,
			address = $9, city = $10, neighborhood = $11,
			support_level = $12, contact_status = $13, priority = $14, notes = $15, last_contacted_at = $16,
			assigned_city_id = $17, assigned_city_name = $18,
			is_active = $19, deleted_at = $20, deleted_by_user_id = $21,
			updated_at = $22
		WHERE id = $1 AND updated_at = $2
	`
	res, err := tx.ExecContext(ctx, query,
		updated.ID, prevUpdatedAt,
		updated.FullName, updated.Phone, updated.NationalID, updated.Email, nullTime(updated.DateOfBirth), updated.Gender,
		updated.Address, updated.City, updated.Neighborhood,
		string(updated.SupportLevel), string(updated.ContactStatus), string(updated.Priority), updated.Notes, nullTime(updated.LastContactedAt),
		updated.AssignedCityID, updated.AssignedCityName,
		updated.IsActive, nullTime(updated.DeletedAt), updated.DeletedByUserID,
		updated.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update voter: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update voter rows affected: %w", err)
	}
	if rows == 0 {
		// Either the record is gone or a concurrent edit won the check.
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM voters WHERE id = $1)`, updated.ID).Scan(&exists); err != nil {
			return fmt.Errorf("update voter existence check: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO voter_edit_history (id, voter_id, editor_user_id, editor_name, editor_role, field, old_value, new_value, edited_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, e.ID, e.VoterID, e.EditorUserID, e.EditorName, string(e.EditorRole), e.Field, e.OldValue, e.NewValue, e.EditedAt)
		if err != nil {
			return fmt.Errorf("append edit history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit voter update: %w", err)
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, p visibility.Predicate, f models.Filters, page models.Page) ([]models.Voter, error) {
	page = page.Normalize()

	pred, predArgs := predicateSQL(p, 1)
	filt, filtArgs := filterSQL(f, 1+len(predArgs))
	args := append(predArgs, filtArgs...)
	n := len(args)

	query := `SELECT ` + voterColumns + ` FROM voters v WHERE ` + pred + filt +
		fmt.Sprintf(" ORDER BY v.inserted_at DESC, v.id DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list voters: %w", err)
	}
	defer rows.Close()
	return collectVoters(rows)
}

func (s *Postgres) Count(ctx context.Context, p visibility.Predicate, f models.Filters) (int, error) {
	pred, predArgs := predicateSQL(p, 1)
	filt, filtArgs := filterSQL(f, 1+len(predArgs))
	args := append(predArgs, filtArgs...)

	var n int
	query := `SELECT COUNT(*) FROM voters v WHERE ` + pred + filt
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count voters: %w", err)
	}
	return n, nil
}

func (s *Postgres) ListDeleted(ctx context.Context) ([]models.Voter, error) {
	query := `SELECT ` + voterColumns + ` FROM voters v WHERE NOT v.is_active AND v.deleted_at IS NOT NULL ORDER BY v.deleted_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deleted voters: %w", err)
	}
	defer rows.Close()
	return collectVoters(rows)
}

func (s *Postgres) SearchByPhone(ctx context.Context, p visibility.Predicate, phone string) ([]models.Voter, error) {
	pred, predArgs := predicateSQL(p, 2)
	args := append([]any{phone}, predArgs...)

	query := `SELECT ` + voterColumns + ` FROM voters v WHERE v.phone = $1 AND ` + pred +
		` ORDER BY v.inserted_at DESC, v.id DESC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search voters by phone: %w", err)
	}
	defer rows.Close()
	return collectVoters(rows)
}

func (s *Postgres) CountByPhone(ctx context.Context, phone string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM voters v WHERE v.is_active AND v.phone = $1`, phone).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count voters by phone: %w", err)
	}
	return n, nil
}

func (s *Postgres) HistoryByVoter(ctx context.Context, voterID string) ([]models.EditHistory, error) {
	query := `
		SELECT id, voter_id, editor_user_id, editor_name, editor_role, field, old_value, new_value, edited_at
		FROM voter_edit_history
		WHERE voter_id = $1
		ORDER BY edited_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, voterID)
	if err != nil {
		return nil, fmt.Errorf("voter edit history: %w", err)
	}
	defer rows.Close()

	var out []models.EditHistory
	for rows.Next() {
		var e models.EditHistory
		var role string
		if err := rows.Scan(&e.ID, &e.VoterID, &e.EditorUserID, &e.EditorName, &role, &e.Field, &e.OldValue, &e.NewValue, &e.EditedAt); err != nil {
			return nil, fmt.Errorf("scan edit history: %w", err)
		}
		e.EditorRole = models.Role(role)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Statistics runs the lifecycle totals and the two per-enum breakdowns as
// three set-oriented queries in parallel.
func (s *Postgres) Statistics(ctx context.Context, p visibility.Predicate) (models.Statistics, error) {
	pred, predArgs := predicateSQL(p, 1)

	// Each goroutine writes a disjoint part of stats, so no locking is needed
	// beyond the errgroup join.
	stats := models.Statistics{
		BySupportLevel:  make(map[models.SupportLevel]int),
		ByContactStatus: make(map[models.ContactStatus]int),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		query := `
			SELECT COUNT(*),
			       COUNT(*) FILTER (WHERE v.is_active),
			       COUNT(*) FILTER (WHERE NOT v.is_active)
			FROM voters v WHERE ` + pred
		if err := s.db.QueryRowContext(ctx, query, predArgs...).Scan(&stats.Total, &stats.Active, &stats.Deleted); err != nil {
			return fmt.Errorf("voter totals: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		query := `SELECT v.support_level, COUNT(*) FROM voters v WHERE v.is_active AND ` + pred + ` GROUP BY v.support_level`
		rows, err := s.db.QueryContext(ctx, query, predArgs...)
		if err != nil {
			return fmt.Errorf("support level counts: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var level string
			var n int
			if err := rows.Scan(&level, &n); err != nil {
				return fmt.Errorf("scan support level count: %w", err)
			}
			stats.BySupportLevel[models.SupportLevel(level)] = n
		}
		return rows.Err()
	})

	g.Go(func() error {
		query := `SELECT v.contact_status, COUNT(*) FROM voters v WHERE v.is_active AND ` + pred + ` GROUP BY v.contact_status`
		rows, err := s.db.QueryContext(ctx, query, predArgs...)
		if err != nil {
			return fmt.Errorf("contact status counts: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var status string
			var n int
			if err := rows.Scan(&status, &n); err != nil {
				return fmt.Errorf("scan contact status count: %w", err)
			}
			stats.ByContactStatus[models.ContactStatus(status)] = n
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return models.Statistics{}, err
	}
	return stats, nil
}

func (s *Postgres) InsertionActivity(ctx context.Context, p visibility.Predicate, from, to time.Time) ([]models.DayCount, error) {
	pred, predArgs := predicateSQL(p, 3)
	args := append([]any{from, to}, predArgs...)

	query := `
		SELECT date_trunc('day', v.inserted_at AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM voters v
		WHERE v.inserted_at >= $1 AND v.inserted_at <= $2 AND ` + pred + `
		GROUP BY day
		ORDER BY day ASC
	`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insertion activity: %w", err)
	}
	defer rows.Close()

	var out []models.DayCount
	for rows.Next() {
		var dc models.DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan insertion activity: %w", err)
		}
		dc.Day = dc.Day.UTC()
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (s *Postgres) DuplicateGroups(ctx context.Context) ([]models.DuplicateGroup, error) {
	query := `
		SELECT v.phone, COUNT(*) AS n, array_to_string(array_agg(v.id ORDER BY v.id), ',') AS ids
		FROM voters v
		WHERE v.is_active
		GROUP BY v.phone
		HAVING COUNT(*) >= 2
		ORDER BY n DESC, v.phone ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("duplicate groups: %w", err)
	}
	defer rows.Close()

	var out []models.DuplicateGroup
	for rows.Next() {
		var g models.DuplicateGroup
		var ids string
		if err := rows.Scan(&g.Phone, &g.Count, &ids); err != nil {
			return nil, fmt.Errorf("scan duplicate group: %w", err)
		}
		g.VoterIDs = strings.Split(ids, ",")
		out = append(out, g)
	}
	return out, rows.Err()
}

type voterRow interface {
	Scan(dest ...any) error
}

func scanVoter(row voterRow) (models.Voter, error) {
	var v models.Voter
	var supportLevel, contactStatus, priority, role string
	var dob, lastContacted, deletedAt sql.NullTime

	err := row.Scan(
		&v.ID, &v.FullName, &v.Phone, &v.NationalID, &v.Email, &dob, &v.Gender,
		&v.Address, &v.City, &v.Neighborhood,
		&supportLevel, &contactStatus, &priority, &v.Notes, &lastContacted,
		&v.InsertedByUserID, &v.InsertedByName, &role, &v.InserterNeighborhood, &v.InserterCity,
		&v.AssignedCityID, &v.AssignedCityName,
		&v.IsActive, &deletedAt, &v.DeletedByUserID,
		&v.InsertedAt, &v.UpdatedAt,
	)
	if err != nil {
		return models.Voter{}, err
	}

	v.SupportLevel = models.SupportLevel(supportLevel)
	v.ContactStatus = models.ContactStatus(contactStatus)
	v.Priority = models.Priority(priority)
	v.InsertedByRole = models.Role(role)
	if dob.Valid {
		v.DateOfBirth = &dob.Time
	}
	if lastContacted.Valid {
		v.LastContactedAt = &lastContacted.Time
	}
	if deletedAt.Valid {
		v.DeletedAt = &deletedAt.Time
	}
	return v, nil
}

func collectVoters(rows *sql.Rows) ([]models.Voter, error) {
	out := make([]models.Voter, 0)
	for rows.Next() {
		v, err := scanVoter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voter: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
