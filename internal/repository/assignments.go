package repository

import (
	"database/sql"
	"fmt"
	"time"

	"rotor-shift-bot/internal/models"

	"go.uber.org/zap"
)

// AssignmentRepository persists assignments keyed by (peer_id, user_id).
type AssignmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *sql.DB, logger *zap.Logger) *AssignmentRepository {
	return &AssignmentRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the assignments table if it does not exist yet.
func (r *AssignmentRepository) EnsureSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS assignments (
			peer_id      BIGINT NOT NULL,
			user_id      BIGINT NOT NULL,
			status       TEXT,
			route_id     INTEGER,
			route_name   TEXT,
			vehicle_id   INTEGER,
			board_number TEXT,
			updated_at   BIGINT NOT NULL,
			PRIMARY KEY (peer_id, user_id)
		)
	`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create assignments table: %w", err)
	}

	return nil
}

// Upsert inserts or fully replaces the assignment for (peerID, userID) with a
// fresh updated_at. Nil optional fields overwrite any previously stored value,
// so callers must re-supply fields they want to keep.
func (r *AssignmentRepository) Upsert(
	peerID, userID int64,
	status string,
	routeID *int,
	routeName *string,
	vehicleID *int,
	boardNumber *string,
) error {
	query := `
		INSERT INTO assignments (peer_id, user_id, status, route_id, route_name, vehicle_id, board_number, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (peer_id, user_id) DO UPDATE SET
			status       = EXCLUDED.status,
			route_id     = EXCLUDED.route_id,
			route_name   = EXCLUDED.route_name,
			vehicle_id   = EXCLUDED.vehicle_id,
			board_number = EXCLUDED.board_number,
			updated_at   = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(query, peerID, userID, status, routeID, routeName, vehicleID, boardNumber, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert assignment: %w", err)
	}

	return nil
}

// Get returns the assignment for (peerID, userID), or nil when the person has
// no stored selections.
func (r *AssignmentRepository) Get(peerID, userID int64) (*models.Assignment, error) {
	query := `
		SELECT status, route_id, route_name, vehicle_id, board_number, updated_at
		FROM assignments
		WHERE peer_id = $1 AND user_id = $2
	`

	a := models.Assignment{PeerID: peerID, UserID: userID}
	var status sql.NullString
	var routeID, vehicleID sql.NullInt64
	var routeName, boardNumber sql.NullString

	err := r.db.QueryRow(query, peerID, userID).Scan(
		&status,
		&routeID,
		&routeName,
		&vehicleID,
		&boardNumber,
		&a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query assignment: %w", err)
	}

	if status.Valid {
		a.Status = status.String
	}
	if routeID.Valid {
		id := int(routeID.Int64)
		a.RouteID = &id
	}
	if routeName.Valid {
		a.RouteName = &routeName.String
	}
	if vehicleID.Valid {
		id := int(vehicleID.Int64)
		a.VehicleID = &id
	}
	if boardNumber.Valid {
		a.BoardNumber = &boardNumber.String
	}

	return &a, nil
}

// Delete removes the assignment for (peerID, userID). Deleting a missing
// record is not an error.
func (r *AssignmentRepository) Delete(peerID, userID int64) error {
	query := `DELETE FROM assignments WHERE peer_id = $1 AND user_id = $2`

	if _, err := r.db.Exec(query, peerID, userID); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	return nil
}

// ListActive returns the active roster for a chat, most recently updated
// first. Dismissed records never appear here: dismissal deletes the row.
func (r *AssignmentRepository) ListActive(peerID int64) ([]models.ActiveEntry, error) {
	query := `
		SELECT user_id, status, route_name, board_number
		FROM assignments
		WHERE peer_id = $1 AND status IS NOT NULL AND status <> $2
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Query(query, peerID, models.StatusDismissed)
	if err != nil {
		return nil, fmt.Errorf("failed to query active assignments: %w", err)
	}
	defer rows.Close()

	var entries []models.ActiveEntry
	for rows.Next() {
		var entry models.ActiveEntry
		var routeName, boardNumber sql.NullString

		if err := rows.Scan(&entry.UserID, &entry.Status, &routeName, &boardNumber); err != nil {
			return nil, fmt.Errorf("failed to scan active assignment: %w", err)
		}

		if routeName.Valid {
			entry.RouteName = &routeName.String
		}
		if boardNumber.Valid {
			entry.BoardNumber = &boardNumber.String
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active assignments: %w", err)
	}

	return entries, nil
}
