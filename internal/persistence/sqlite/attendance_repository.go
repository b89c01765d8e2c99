package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/workdesk/internal/persistence"
)

// AttendanceRepository implements persistence.AttendanceRepository using SQLite.
type AttendanceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAttendanceRepository creates a new SQLite attendance repository.
func NewAttendanceRepository(pool *ConnectionPool) *AttendanceRepository {
	return &AttendanceRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const attendanceColumns = "id, user_id, date, check_in, check_out, latitude, longitude, address, created_at, updated_at"

// CreateAttendance inserts a check-in record. A second open record for the
// same user and date maps to ErrDuplicate.
func (r *AttendanceRepository) CreateAttendance(ctx context.Context, record persistence.AttendanceRecord) error {
	if record.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var openCount int
		err := r.helper.QueryRowTx(tx, `
			SELECT COUNT(*) FROM attendance
			WHERE user_id = ? AND date = ? AND check_out IS NULL
		`, record.UserID, record.Date).Scan(&openCount)
		if err != nil {
			return r.mapper.MapError(err)
		}
		if openCount > 0 {
			return persistence.ErrDuplicate
		}

		query := `
			INSERT INTO attendance (` + attendanceColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = r.helper.ExecTx(tx, query,
			record.ID,
			record.UserID,
			record.Date,
			formatTime(record.CheckIn),
			formatNullTime(record.CheckOut),
			record.Latitude,
			record.Longitude,
			record.Address,
			formatTime(record.CreatedAt),
			formatTime(record.UpdatedAt),
		)
		return r.mapper.MapError(err)
	})
}

// UpdateAttendance rewrites a record, typically to add the check-out.
func (r *AttendanceRepository) UpdateAttendance(ctx context.Context, record persistence.AttendanceRecord) error {
	query := `
		UPDATE attendance
		SET check_in = ?, check_out = ?, latitude = ?, longitude = ?, address = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		formatTime(record.CheckIn),
		formatNullTime(record.CheckOut),
		record.Latitude,
		record.Longitude,
		record.Address,
		formatTime(record.UpdatedAt),
		record.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// GetOpenAttendance returns the user's not-yet-checked-out record for a date.
func (r *AttendanceRepository) GetOpenAttendance(ctx context.Context, userID, date string) (persistence.AttendanceRecord, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT `+attendanceColumns+` FROM attendance
		WHERE user_id = ? AND date = ? AND check_out IS NULL
	`, userID, date)
	return r.scanAttendance(row)
}

// ListAttendance returns a user's records ordered by check-in time.
func (r *AttendanceRepository) ListAttendance(ctx context.Context, userID string) ([]persistence.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance ORDER BY check_in ASC, id ASC`
	args := []interface{}{}
	if userID != "" {
		query = `SELECT ` + attendanceColumns + ` FROM attendance WHERE user_id = ? ORDER BY check_in ASC, id ASC`
		args = append(args, userID)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.AttendanceRecord
	for rows.Next() {
		var record persistence.AttendanceRecord
		var checkIn, createdAt, updatedAt string
		var checkOut sql.NullString

		if err := rows.Scan(&record.ID, &record.UserID, &record.Date, &checkIn, &checkOut, &record.Latitude, &record.Longitude, &record.Address, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if record.CheckIn, err = parseTime(checkIn, "check_in"); err != nil {
			return nil, err
		}
		if record.CheckOut, err = parseNullTime(checkOut, "check_out"); err != nil {
			return nil, err
		}
		if record.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if record.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return records, nil
}

func (r *AttendanceRepository) scanAttendance(row *sql.Row) (persistence.AttendanceRecord, error) {
	var record persistence.AttendanceRecord
	var checkIn, createdAt, updatedAt string
	var checkOut sql.NullString

	err := row.Scan(&record.ID, &record.UserID, &record.Date, &checkIn, &checkOut, &record.Latitude, &record.Longitude, &record.Address, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AttendanceRecord{}, persistence.ErrNotFound
		}
		return persistence.AttendanceRecord{}, r.mapper.MapError(err)
	}
	if record.CheckIn, err = parseTime(checkIn, "check_in"); err != nil {
		return persistence.AttendanceRecord{}, err
	}
	if record.CheckOut, err = parseNullTime(checkOut, "check_out"); err != nil {
		return persistence.AttendanceRecord{}, err
	}
	if record.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.AttendanceRecord{}, err
	}
	if record.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.AttendanceRecord{}, err
	}
	return record, nil
}
