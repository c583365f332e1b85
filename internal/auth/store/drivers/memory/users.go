package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
	"github.com/aussiebroadwan/taskboard/internal/auth/store"
)

type usersRepo struct {
	v view
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	var (
		u  domain.User
		ok bool
	)
	r.v.read(func(s *state) { u, ok = s.users[id] })
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var (
		u  domain.User
		ok bool
	)
	r.v.read(func(s *state) {
		var id string
		if id, ok = s.byEmail[domain.NormalizeEmail(email)]; ok {
			u, ok = s.users[id]
		}
	})
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	r.v.read(func(s *state) {
		out = make([]domain.User, 0, len(s.users))
		for _, u := range s.users {
			out = append(out, u)
		}
	})
	slices.SortFunc(out, func(a, b domain.User) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	var err error
	u.Email = domain.NormalizeEmail(u.Email)
	r.v.write(func(s *state) func() {
		if _, taken := s.byEmail[u.Email]; taken {
			err = store.ErrAlreadyExists
			return nil
		}
		if _, taken := s.users[u.ID]; taken {
			err = store.ErrAlreadyExists
			return nil
		}
		s.users[u.ID] = u
		s.byEmail[u.Email] = u.ID
		return func() {
			delete(s.users, u.ID)
			delete(s.byEmail, u.Email)
		}
	})
	return err
}

// update applies fn to a copy of the user and stores it back.
func (r *usersRepo) update(userID string, fn func(s *state, u *domain.User) error) error {
	var err error
	r.v.write(func(s *state) func() {
		prev, ok := s.users[userID]
		if !ok {
			err = store.ErrNotFound
			return nil
		}
		next := prev
		if err = fn(s, &next); err != nil {
			return nil
		}
		s.users[userID] = next
		return func() { s.users[userID] = prev }
	})
	return err
}

func (r *usersRepo) UpdateName(ctx context.Context, userID, name string, at time.Time) error {
	return r.update(userID, func(_ *state, u *domain.User) error {
		u.Name = name
		u.UpdatedAt = &at
		return nil
	})
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string, at time.Time) error {
	return r.update(userID, func(_ *state, u *domain.User) error {
		u.PasswordHash = newHash
		u.UpdatedAt = &at
		return nil
	})
}

func (r *usersRepo) UpdateEmail(ctx context.Context, userID, email string, at time.Time) error {
	email = domain.NormalizeEmail(email)

	var (
		err     error
		oldMail string
	)
	r.v.write(func(s *state) func() {
		prev, ok := s.users[userID]
		if !ok {
			err = store.ErrNotFound
			return nil
		}
		if owner, taken := s.byEmail[email]; taken && owner != userID {
			err = store.ErrAlreadyExists
			return nil
		}

		oldMail = prev.Email
		next := prev
		next.Email = email
		next.UpdatedAt = &at

		delete(s.byEmail, oldMail)
		s.byEmail[email] = userID
		s.users[userID] = next

		return func() {
			delete(s.byEmail, email)
			s.byEmail[oldMail] = userID
			s.users[userID] = prev
		}
	})
	return err
}

func (r *usersRepo) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.update(userID, func(_ *state, u *domain.User) error {
		u.LastLogin = &at
		return nil
	})
}

func (r *usersRepo) Deactivate(ctx context.Context, userID string, at time.Time) error {
	return r.update(userID, func(_ *state, u *domain.User) error {
		u.IsActive = false
		u.DeactivatedAt = &at
		u.UpdatedAt = &at
		return nil
	})
}

func (r *usersRepo) Count(ctx context.Context) (int, error) {
	var n int
	r.v.read(func(s *state) { n = len(s.users) })
	return n, nil
}
