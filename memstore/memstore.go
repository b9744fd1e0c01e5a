// Package memstore keeps every SpendWise collection in process memory. It
// backs the "memory" store driver for local runs and lets tests inject
// failures into individual operations to exercise partial writes.
package memstore

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/eventlogger"
	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/session"
	"github.com/sijujiampugi-arch/SpendWise/sharing"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

// Operation names accepted by FailAfter.
const (
	OpUserCreate      = "user.create"
	OpExpenseCreate   = "expense.create"
	OpExpenseUpdate   = "expense.update"
	OpExpenseDelete   = "expense.delete"
	OpLedgerCreate    = "ledger.create"
	OpLedgerSetStatus = "ledger.set_status"
	OpLedgerDelete    = "ledger.delete"
	OpGrantUpsert     = "grant.upsert"
	OpGrantDelete     = "grant.delete"
)

// ErrInjected is returned by operations failed through FailAfter when no
// other error was given.
var ErrInjected = errors.New("injected failure")

type fault struct {
	remaining int
	err       error
}

type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]user.User
	expenses map[uuid.UUID]expense.Expense
	entries  map[uuid.UUID]ledger.Entry
	grants   map[uuid.UUID]sharing.Grant
	sessions map[string]session.Session
	events   []eventlogger.Event
	faults   map[string]*fault
	seq      int64
	order    map[uuid.UUID]int64
}

func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]user.User),
		expenses: make(map[uuid.UUID]expense.Expense),
		entries:  make(map[uuid.UUID]ledger.Entry),
		grants:   make(map[uuid.UUID]sharing.Grant),
		sessions: make(map[string]session.Session),
		faults:   make(map[string]*fault),
		order:    make(map[uuid.UUID]int64),
	}
}

// FailAfter lets op succeed n more times and then fail with err (ErrInjected
// when nil) until ClearFaults is called.
func (s *Store) FailAfter(op string, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	s.faults[op] = &fault{remaining: n, err: err}
}

func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]*fault)
}

// check must be called with s.mu held for writing.
func (s *Store) check(op string) error {
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
		return nil
	}
	return f.err
}

// stamp records insertion order for stable listings.
func (s *Store) stamp(id uuid.UUID) {
	if _, ok := s.order[id]; ok {
		return
	}
	s.seq++
	s.order[id] = s.seq
}

func (s *Store) Users() user.Repository       { return &users{s} }
func (s *Store) Expenses() expense.Repository { return &expenses{s} }
func (s *Store) Ledger() ledger.Repository    { return &entries{s} }
func (s *Store) Grants() sharing.Repository   { return &grants{s} }
func (s *Store) Events() eventlogger.Sink     { return &events{s} }

func (s *Store) Sessions(ttl time.Duration) session.Repository {
	return &sessions{Store: s, ttl: ttl}
}
