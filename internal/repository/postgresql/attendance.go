package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

var attendanceColumns = []string{"id", "shift_id", "user_id", "time_in", "time_out", "created_at", "updated_at"}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.ShiftID, &att.UserID,
		&att.TimeIn, &att.TimeOut,
		&att.CreatedAt, &att.UpdatedAt,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}
	att.TimeIn = att.TimeIn.UTC()
	if att.TimeOut != nil {
		out := att.TimeOut.UTC()
		att.TimeOut = &out
	}
	return att, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}

	query, args, err := psql.Insert("attendances").
		Columns("id", "shift_id", "user_id", "time_in", "time_out").
		Values(id.String(), newAttendance.ShiftID, newAttendance.UserID, newAttendance.TimeIn, newAttendance.TimeOut).
		Suffix("RETURNING " + strings.Join(attendanceColumns, ", ")).
		ToSql()
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to build attendance insert: %w", err)
	}

	created, err := scanAttendance(q.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err, "attendances_user_shift_key") {
			return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return created, nil
}

func (a *attendanceRepository) getByUserAndShift(ctx context.Context, userID, shiftID string, forUpdate bool) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	builder := psql.Select(attendanceColumns...).
		From("attendances").
		Where(squirrel.Eq{"user_id::text": userID, "shift_id::text": shiftID})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to build attendance query: %w", err)
	}

	att, err := scanAttendance(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return att, nil
}

// GetByUserAndShift implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByUserAndShift(ctx context.Context, userID, shiftID string) (attendance.Attendance, error) {
	return a.getByUserAndShift(ctx, userID, shiftID, false)
}

// GetByUserAndShiftForUpdate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByUserAndShiftForUpdate(ctx context.Context, userID, shiftID string) (attendance.Attendance, error) {
	if !inTransaction(ctx) {
		return attendance.Attendance{}, errNoTransaction
	}
	return a.getByUserAndShift(ctx, userID, shiftID, true)
}

// SetTimeOut implements attendance.AttendanceRepository.
func (a *attendanceRepository) SetTimeOut(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query, args, err := psql.Update("attendances").
		Set("time_out", att.TimeOut).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": att.ID}).
		Where("time_out IS NULL").
		Suffix("RETURNING " + strings.Join(attendanceColumns, ", ")).
		ToSql()
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to build clock-out update: %w", err)
	}

	updated, err := scanAttendance(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAlreadyClockedOut
		}
		return attendance.Attendance{}, fmt.Errorf("failed to set time out: %w", err)
	}

	return updated, nil
}

// ListByShiftIDs implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByShiftIDs(ctx context.Context, shiftIDs []string) ([]attendance.Attendance, error) {
	if len(shiftIDs) == 0 {
		return []attendance.Attendance{}, nil
	}
	q := GetQuerier(ctx, a.db)

	query, args, err := psql.Select(attendanceColumns...).
		From("attendances").
		Where(squirrel.Eq{"shift_id::text": shiftIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build attendance query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	records := make([]attendance.Attendance, 0)
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}

	return records, rows.Err()
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{
		db: db,
	}
}
