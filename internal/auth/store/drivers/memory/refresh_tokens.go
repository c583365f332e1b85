package memory

import (
	"context"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
	"github.com/aussiebroadwan/taskboard/internal/auth/store"
)

type refreshTokensRepo struct {
	v view
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	var err error
	r.v.write(func(s *state) func() {
		if _, dup := s.refresh[t.TokenHash]; dup {
			err = store.ErrAlreadyExists
			return nil
		}
		s.putRefresh(t)
		return func() { s.dropRefresh(t) }
	})
	return err
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var (
		t  domain.RefreshToken
		ok bool
	)
	r.v.read(func(s *state) { t, ok = s.refresh[hash] })
	if !ok {
		return domain.RefreshToken{}, store.ErrNotFound
	}
	return t, nil
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, hash string) error {
	var err error
	r.v.write(func(s *state) func() {
		t, ok := s.refresh[hash]
		if !ok {
			err = store.ErrNotFound
			return nil
		}
		s.dropRefresh(t)
		return func() { s.putRefresh(t) }
	})
	return err
}

func (r *refreshTokensRepo) DeleteUserRefreshTokens(ctx context.Context, userID string) (int, error) {
	var removed []domain.RefreshToken
	r.v.write(func(s *state) func() {
		for hash := range s.byUser[userID] {
			t := s.refresh[hash]
			removed = append(removed, t)
			s.dropRefresh(t)
		}
		return func() {
			for _, t := range removed {
				s.putRefresh(t)
			}
		}
	})
	return len(removed), nil
}

func (r *refreshTokensRepo) CountUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int, error) {
	var n int
	r.v.read(func(s *state) {
		for hash := range s.byUser[userID] {
			if !s.refresh[hash].Expired(now) {
				n++
			}
		}
	})
	return n, nil
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int, error) {
	var removed []domain.RefreshToken
	r.v.write(func(s *state) func() {
		for _, t := range s.refresh {
			if t.Expired(now) {
				removed = append(removed, t)
			}
		}
		for _, t := range removed {
			s.dropRefresh(t)
		}
		return func() {
			for _, t := range removed {
				s.putRefresh(t)
			}
		}
	})
	return len(removed), nil
}

func (s *state) putRefresh(t domain.RefreshToken) {
	s.refresh[t.TokenHash] = t
	set, ok := s.byUser[t.UserID]
	if !ok {
		set = make(map[string]struct{})
		s.byUser[t.UserID] = set
	}
	set[t.TokenHash] = struct{}{}
}

func (s *state) dropRefresh(t domain.RefreshToken) {
	delete(s.refresh, t.TokenHash)
	if set, ok := s.byUser[t.UserID]; ok {
		delete(set, t.TokenHash)
		if len(set) == 0 {
			delete(s.byUser, t.UserID)
		}
	}
}
