// Package memory is an in-process backend for the roster repositories. Every operation is
// serialized on one mutex; a transaction holds it from begin to commit.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

type txKey struct{}

var _ database.Transactor = (*Store)(nil)

type Store struct {
	mu          sync.Mutex
	users       map[string]user.User
	shifts      map[string]schedule.Shift
	attendances map[string]attendance.Attendance
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]user.User),
		shifts:      make(map[string]schedule.Shift),
		attendances: make(map[string]attendance.Attendance),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) inTransaction(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// acquire locks the store unless ctx already runs inside one of its transactions.
func (s *Store) acquire(ctx context.Context) func() {
	if s.inTransaction(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	users       map[string]user.User
	shifts      map[string]schedule.Shift
	attendances map[string]attendance.Attendance
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		users:       maps.Clone(s.users),
		shifts:      maps.Clone(s.shifts),
		attendances: maps.Clone(s.attendances),
	}
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.shifts = snap.shifts
	s.attendances = snap.attendances
}

// WithinTransaction implements database.Transactor. Changes made by fn are discarded when it
// returns an error or panics.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTransaction(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
