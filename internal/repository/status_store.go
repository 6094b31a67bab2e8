package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/depotrack/depotrack/internal/models"
	"github.com/depotrack/depotrack/internal/status"
)

// StatusStore is the record store for per-track status values and the
// append-only transition history. It is the sole writer of both; every other
// component reads and appends through this interface.
//
// Two concurrent commits to the same (project, track) serialize: at most one
// writer wins per logical transition and the loser receives ErrConflict.
type StatusStore interface {
	// GetCurrent returns the current value for one (project, track), or nil
	// when the track has never been set. An unknown project is treated as
	// fully unset, never an error.
	GetCurrent(ctx context.Context, projectID int64, track status.Track) (*models.TrackStatus, error)

	// History returns all committed transitions for a project, newest first.
	// It reflects only committed writes at call time and is safe to call
	// repeatedly.
	History(ctx context.Context, projectID int64) ([]models.StatusHistoryEntry, error)

	// CommitTransition appends the history entry and atomically updates the
	// current-value record. expectedVersion must match the version read from
	// GetCurrent (0 for an unset track); a mismatch yields ErrConflict and
	// no partial write.
	CommitTransition(ctx context.Context, entry *models.StatusHistoryEntry, expectedVersion int64) error
}

// MySQLStatusStore implements StatusStore on the project_status and
// status_history tables. Serialization uses a version column compared-and
// -swapped inside a single transaction.
type MySQLStatusStore struct {
	db *sqlx.DB
}

// NewMySQLStatusStore creates a status store backed by MySQL.
func NewMySQLStatusStore(db *sqlx.DB) *MySQLStatusStore {
	return &MySQLStatusStore{db: db}
}

// trackStatusRow maps the project_status table including nullable auxiliary columns.
type trackStatusRow struct {
	ProjectID      int64          `db:"project_id"`
	Track          string         `db:"track"`
	Value          string         `db:"value"`
	SecondaryValue string         `db:"secondary_value"`
	DeliveryTime   sql.NullTime   `db:"delivery_time"`
	Address        sql.NullString `db:"delivery_address"`
	PO             sql.NullString `db:"delivery_po"`
	DeliveredBy    sql.NullString `db:"delivered_by"`
	Version        int64          `db:"version"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r *trackStatusRow) toModel() *models.TrackStatus {
	ts := &models.TrackStatus{
		ProjectID:      r.ProjectID,
		Track:          status.Track(r.Track),
		Value:          r.Value,
		SecondaryValue: r.SecondaryValue,
		Version:        r.Version,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.DeliveryTime.Valid || r.Address.Valid || r.PO.Valid || r.DeliveredBy.Valid {
		aux := &status.DeliveryDetails{
			Address:     r.Address.String,
			PO:          r.PO.String,
			DeliveredBy: r.DeliveredBy.String,
		}
		if r.DeliveryTime.Valid {
			aux.Time = r.DeliveryTime.Time.UTC().Format(time.RFC3339)
		}
		ts.Auxiliary = aux
	}
	return ts
}

// GetCurrent returns the current status for one (project, track), nil when unset.
func (s *MySQLStatusStore) GetCurrent(ctx context.Context, projectID int64, track status.Track) (*models.TrackStatus, error) {
	var row trackStatusRow
	err := s.db.GetContext(ctx, &row,
		`SELECT project_id, track, value, secondary_value, delivery_time,
		        delivery_address, delivery_po, delivered_by, version, updated_at
		 FROM project_status WHERE project_id = ? AND track = ?`,
		projectID, track)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, ParseDBError(err)
	}
	return row.toModel(), nil
}

// historyRow maps the status_history table; the auxiliary payload is a JSON column.
type historyRow struct {
	ID           string         `db:"id"`
	ProjectID    int64          `db:"project_id"`
	Track        string         `db:"track"`
	OldValue     string         `db:"old_value"`
	NewValue     string         `db:"new_value"`
	NewSecondary string         `db:"new_secondary"`
	Auxiliary    sql.NullString `db:"auxiliary"`
	ActorUserID  int64          `db:"actor_user_id"`
	ActorRole    string         `db:"actor_role"`
	CreatedAt    time.Time      `db:"created_at"`
}

// History returns all transitions for a project in commit order, newest first.
func (s *MySQLStatusStore) History(ctx context.Context, projectID int64) ([]models.StatusHistoryEntry, error) {
	var rows []historyRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, project_id, track, old_value, new_value, new_secondary,
		        auxiliary, actor_user_id, actor_role, created_at
		 FROM status_history WHERE project_id = ? ORDER BY seq DESC`,
		projectID)
	if err != nil {
		return nil, ParseDBError(err)
	}

	entries := make([]models.StatusHistoryEntry, 0, len(rows))
	for _, r := range rows {
		entry := models.StatusHistoryEntry{
			ID:           r.ID,
			ProjectID:    r.ProjectID,
			Track:        status.Track(r.Track),
			OldValue:     r.OldValue,
			NewValue:     r.NewValue,
			NewSecondary: r.NewSecondary,
			Actor:        models.Actor{UserID: r.ActorUserID, Role: r.ActorRole},
			Timestamp:    r.CreatedAt,
		}
		if r.Auxiliary.Valid && r.Auxiliary.String != "" {
			var aux status.DeliveryDetails
			if err := json.Unmarshal([]byte(r.Auxiliary.String), &aux); err != nil {
				return nil, fmt.Errorf("corrupt auxiliary payload on history entry %s: %w", r.ID, err)
			}
			entry.Auxiliary = &aux
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CommitTransition appends the entry and swaps the current value in one transaction.
func (s *MySQLStatusStore) CommitTransition(ctx context.Context, entry *models.StatusHistoryEntry, expectedVersion int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return ParseDBError(err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	var deliveryTime any
	var address, po, deliveredBy any
	if entry.Auxiliary != nil {
		parsed, perr := status.ParseDeliveryTime(entry.Auxiliary.Time)
		if perr != nil {
			return fmt.Errorf("auxiliary payload failed validation upstream: %w", perr)
		}
		deliveryTime = parsed.UTC()
		address = entry.Auxiliary.Address
		po = entry.Auxiliary.PO
		deliveredBy = entry.Auxiliary.DeliveredBy
	}

	if expectedVersion == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO project_status
			   (project_id, track, value, secondary_value, delivery_time,
			    delivery_address, delivery_po, delivered_by, version, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
			entry.ProjectID, entry.Track, entry.NewValue, entry.NewSecondary,
			deliveryTime, address, po, deliveredBy, entry.Timestamp)
		if err != nil {
			// Another writer created the row first.
			if errors.Is(ParseDBError(err), ErrDuplicateKey) {
				return ErrConflict
			}
			return ParseDBError(err)
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`UPDATE project_status
			 SET value = ?, secondary_value = ?, delivery_time = ?,
			     delivery_address = ?, delivery_po = ?, delivered_by = ?,
			     version = version + 1, updated_at = ?
			 WHERE project_id = ? AND track = ? AND version = ?`,
			entry.NewValue, entry.NewSecondary, deliveryTime,
			address, po, deliveredBy, entry.Timestamp,
			entry.ProjectID, entry.Track, expectedVersion)
		if err != nil {
			return ParseDBError(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return ParseDBError(err)
		}
		if affected == 0 {
			return ErrConflict
		}
	}

	var auxJSON any
	if entry.Auxiliary != nil {
		data, merr := json.Marshal(entry.Auxiliary)
		if merr != nil {
			return fmt.Errorf("failed to encode auxiliary payload: %w", merr)
		}
		auxJSON = string(data)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO status_history
		   (id, project_id, track, old_value, new_value, new_secondary,
		    auxiliary, actor_user_id, actor_role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ProjectID, entry.Track, entry.OldValue, entry.NewValue,
		entry.NewSecondary, auxJSON, entry.Actor.UserID, entry.Actor.Role, entry.Timestamp)
	if err != nil {
		return ParseDBError(err)
	}

	if err := tx.Commit(); err != nil {
		return ParseDBError(err)
	}
	return nil
}
