package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/timewindow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type shiftRepository struct {
	db *database.DB
}

var shiftColumns = []string{"id", "user_id", "work_date", "start_time", "end_time", "role", "location", "created_at"}

func toPgTime(t timewindow.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Duration().Microseconds(), Valid: true}
}

func fromPgTime(t pgtype.Time) timewindow.TimeOfDay {
	return timewindow.TimeOfDay(t.Microseconds / int64(time.Minute/time.Microsecond))
}

func scanShift(row pgx.Row) (schedule.Shift, error) {
	var (
		s          schedule.Shift
		start, end pgtype.Time
	)
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.WorkDate,
		&start,
		&end,
		&s.Role,
		&s.Location,
		&s.CreatedAt,
	)
	if err != nil {
		return schedule.Shift{}, err
	}
	s.WorkDate = timewindow.DateOnly(s.WorkDate)
	s.Start, s.End = fromPgTime(start), fromPgTime(end)
	return s, nil
}

func collectShifts(rows pgx.Rows) ([]schedule.Shift, error) {
	defer rows.Close()

	shifts := make([]schedule.Shift, 0)
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// Create implements schedule.ShiftRepository.
func (r *shiftRepository) Create(ctx context.Context, shift schedule.Shift) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return schedule.Shift{}, fmt.Errorf("failed to generate shift id: %w", err)
	}

	query, args, err := psql.Insert("shifts").
		Columns("id", "user_id", "work_date", "start_time", "end_time", "role", "location").
		Values(id.String(), shift.UserID, timewindow.DateOnly(shift.WorkDate), toPgTime(shift.Start), toPgTime(shift.End), shift.Role, shift.Location).
		Suffix("RETURNING " + strings.Join(shiftColumns, ", ")).
		ToSql()
	if err != nil {
		return schedule.Shift{}, fmt.Errorf("failed to build shift insert: %w", err)
	}

	created, err := scanShift(q.QueryRow(ctx, query, args...))
	if err != nil {
		switch {
		case isUniqueViolation(err, "shifts_user_date_start_key"):
			return schedule.Shift{}, schedule.ErrShiftOverlap
		case isCheckViolation(err):
			return schedule.Shift{}, schedule.ErrShiftInvalidSpan
		case isForeignKeyViolation(err), isInvalidID(err):
			return schedule.Shift{}, user.ErrUserNotFound
		}
		return schedule.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}

	return created, nil
}

// GetByID implements schedule.ShiftRepository.
func (r *shiftRepository) GetByID(ctx context.Context, id string) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query, args, err := psql.Select(shiftColumns...).From("shifts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return schedule.Shift{}, fmt.Errorf("failed to build shift query: %w", err)
	}

	s, err := scanShift(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return schedule.Shift{}, schedule.ErrShiftNotFound
		}
		return schedule.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}

	return s, nil
}

// ListByDateRange implements schedule.ShiftRepository.
func (r *shiftRepository) ListByDateRange(ctx context.Context, filter schedule.ShiftFilter) ([]schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	builder := psql.Select(shiftColumns...).
		From("shifts").
		Where(squirrel.GtOrEq{"work_date": timewindow.DateOnly(filter.From)}).
		Where(squirrel.LtOrEq{"work_date": timewindow.DateOnly(filter.To)}).
		OrderBy("work_date", "start_time", "user_id::text", "id::text")

	if filter.UserID != nil {
		builder = builder.Where(squirrel.Eq{"user_id::text": *filter.UserID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build roster query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}

	return collectShifts(rows)
}

// ListByUserAndDate implements schedule.ShiftRepository.
func (r *shiftRepository) ListByUserAndDate(ctx context.Context, userID string, workDate time.Time) ([]schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query, args, err := psql.Select(shiftColumns...).
		From("shifts").
		Where(squirrel.Eq{"user_id::text": userID, "work_date": timewindow.DateOnly(workDate)}).
		OrderBy("start_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build shift query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user shifts: %w", err)
	}

	return collectShifts(rows)
}

// LockUserDate implements schedule.ShiftRepository. The advisory lock is released on commit or rollback.
func (r *shiftRepository) LockUserDate(ctx context.Context, userID string, workDate time.Time) error {
	if !inTransaction(ctx) {
		return errNoTransaction
	}
	q := GetQuerier(ctx, r.db)

	key := "shift:" + userID + ":" + timewindow.FormatDate(workDate)
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock user date: %w", err)
	}
	return nil
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepository{
		db: db,
	}
}
