package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type users struct{ *Store }

func (r *users) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(OpUserCreate); err != nil {
		return err
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("inserting user: duplicate email %q", u.Email)
		}
	}
	r.users[u.ID] = *u
	r.stamp(u.ID)
	return nil
}

func (r *users) GetByEmail(_ context.Context, email string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *users) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *users) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.order[out[i].ID] < r.order[out[j].ID]
	})
	return out, nil
}

func (r *users) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *users) UpdateName(_ context.Context, userID uuid.UUID, name string) error {
	return r.update(userID, func(u *user.User) { u.Name = name })
}

func (r *users) UpdateRole(_ context.Context, userID uuid.UUID, role permission.Role) error {
	return r.update(userID, func(u *user.User) { u.Role = role })
}

func (r *users) SetPassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	return r.update(userID, func(u *user.User) { u.PasswordHash = passwordHash })
}

func (r *users) update(id uuid.UUID, fn func(*user.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	fn(&u)
	r.users[id] = u
	return nil
}
