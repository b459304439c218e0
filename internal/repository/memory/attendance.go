package memory

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/attendance"
)

type attendanceRepository struct {
	store *Store
}

func NewAttendanceRepository(store *Store) attendance.AttendanceRepository {
	return &attendanceRepository{store: store}
}

func attendanceKey(userID, shiftID string) string {
	return userID + "|" + shiftID
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	defer r.store.acquire(ctx)()

	key := attendanceKey(newAttendance.UserID, newAttendance.ShiftID)
	if _, exists := r.store.attendances[key]; exists {
		return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
	}

	id, err := newID()
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}
	now := r.store.now()
	newAttendance.ID = id
	newAttendance.CreatedAt = now
	newAttendance.UpdatedAt = now
	r.store.attendances[key] = newAttendance

	return newAttendance, nil
}

// GetByUserAndShift implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByUserAndShift(ctx context.Context, userID, shiftID string) (attendance.Attendance, error) {
	defer r.store.acquire(ctx)()

	att, ok := r.store.attendances[attendanceKey(userID, shiftID)]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return att, nil
}

// GetByUserAndShiftForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByUserAndShiftForUpdate(ctx context.Context, userID, shiftID string) (attendance.Attendance, error) {
	if !r.store.inTransaction(ctx) {
		return attendance.Attendance{}, errNoTransaction
	}
	return r.GetByUserAndShift(ctx, userID, shiftID)
}

// SetTimeOut implements attendance.AttendanceRepository.
func (r *attendanceRepository) SetTimeOut(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	defer r.store.acquire(ctx)()

	key := attendanceKey(att.UserID, att.ShiftID)
	stored, ok := r.store.attendances[key]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	if stored.TimeOut != nil {
		return attendance.Attendance{}, attendance.ErrAlreadyClockedOut
	}

	stored.TimeOut = att.TimeOut
	stored.UpdatedAt = r.store.now()
	r.store.attendances[key] = stored

	return stored, nil
}

// ListByShiftIDs implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByShiftIDs(ctx context.Context, shiftIDs []string) ([]attendance.Attendance, error) {
	defer r.store.acquire(ctx)()

	wanted := make(map[string]struct{}, len(shiftIDs))
	for _, id := range shiftIDs {
		wanted[id] = struct{}{}
	}

	records := make([]attendance.Attendance, 0)
	for _, att := range r.store.attendances {
		if _, ok := wanted[att.ShiftID]; ok {
			records = append(records, att)
		}
	}
	return records, nil
}
