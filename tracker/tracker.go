// Package tracker coordinates the expense, ledger and share-grant
// collections. Each operation loads the caller fresh, checks capabilities
// before writing, and spreads multi-record writes across stores that share
// no transaction. Ledger entries carry an intent status so that an
// interrupted write is visible to Reconcile.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/eventlogger"
	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/sharing"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type Service struct {
	users    user.Repository
	expenses expense.Repository
	ledger   ledger.Repository
	grants   sharing.Repository
	events   eventlogger.Publisher
	resolver permission.Resolver
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.log = logger
	}
}

func WithEvents(p eventlogger.Publisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

func WithResolver(r permission.Resolver) Option {
	return func(s *Service) {
		s.resolver = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Stores groups the repositories a Service works on.
type Stores struct {
	Users    user.Repository
	Expenses expense.Repository
	Ledger   ledger.Repository
	Grants   sharing.Repository
}

func New(stores Stores, opts ...Option) *Service {
	s := &Service{
		users:    stores.Users,
		expenses: stores.Expenses,
		ledger:   stores.Ledger,
		grants:   stores.Grants,
		events:   eventlogger.Discard,
		resolver: permission.Resolver{FullVisibility: true},
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// caller loads the acting participant. Roles change at runtime, so this
// runs on every operation.
func (s *Service) caller(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading caller: %w", err)
	}
	if u == nil {
		return nil, forbidden("act", "unknown participant")
	}
	return u, nil
}

func (s *Service) publish(eventType string, actor uuid.UUID, data any) {
	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventType),
		eventlogger.WithActor(actor),
		eventlogger.WithData(data),
	))
}

// partial logs and records a partially applied write and returns the
// warning handed back to the caller.
func (s *Service) partial(actor uuid.UUID, operation string, failures []error, attrs ...any) error {
	w := &PartialConsistencyWarning{Operation: operation, Failures: failures}
	s.log.Error("multi-record write partially applied", append([]any{"operation", operation, "error", w}, attrs...)...)

	msgs := make([]string, 0, len(failures))
	for _, f := range failures {
		msgs = append(msgs, f.Error())
	}
	s.publish(EventPartialConsistency, actor, PartialConsistencyEvent{Operation: operation, Failures: msgs})
	return w
}

func privileged(role permission.Role) bool {
	return role == permission.RoleOwner || role == permission.RoleCoOwner
}
