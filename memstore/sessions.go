package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/eventlogger"
	"github.com/sijujiampugi-arch/SpendWise/session"
)

type sessions struct {
	*Store
	ttl time.Duration
}

func (r *sessions) Create(_ context.Context, userID uuid.UUID) (*session.Session, error) {
	sess, err := session.New(userID, r.ttl)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.Token] = *sess
	return sess, nil
}

func (r *sessions) GetByToken(_ context.Context, token string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[token]
	if !ok {
		return nil, session.ErrInvalidSession
	}
	if sess.Expired(time.Now()) {
		return nil, session.ErrExpiredSession
	}
	return &sess, nil
}

func (r *sessions) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r *sessions) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, sess := range r.sessions {
		if sess.UserID == userID {
			delete(r.sessions, token)
		}
	}
	return nil
}

type events struct{ *Store }

func (r *events) Save(_ context.Context, e eventlogger.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *events) GetByType(_ context.Context, eventType string) ([]eventlogger.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]eventlogger.Event, 0)
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out, nil
}
