package memory

import (
	"context"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
	"github.com/aussiebroadwan/taskboard/internal/auth/store"
)

type resetTokensRepo struct {
	v view
}

func (r *resetTokensRepo) CreateResetToken(ctx context.Context, t domain.ResetToken) error {
	var err error
	r.v.write(func(s *state) func() {
		if _, dup := s.resets[t.TokenHash]; dup {
			err = store.ErrAlreadyExists
			return nil
		}
		s.resets[t.TokenHash] = t
		return func() { delete(s.resets, t.TokenHash) }
	})
	return err
}

func (r *resetTokensRepo) GetResetTokenByHash(ctx context.Context, hash string) (domain.ResetToken, error) {
	var (
		t  domain.ResetToken
		ok bool
	)
	r.v.read(func(s *state) { t, ok = s.resets[hash] })
	if !ok {
		return domain.ResetToken{}, store.ErrNotFound
	}
	return t, nil
}

func (r *resetTokensRepo) DeleteResetToken(ctx context.Context, hash string) error {
	var err error
	r.v.write(func(s *state) func() {
		t, ok := s.resets[hash]
		if !ok {
			err = store.ErrNotFound
			return nil
		}
		delete(s.resets, hash)
		return func() { s.resets[hash] = t }
	})
	return err
}

func (r *resetTokensRepo) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int, error) {
	var removed []domain.ResetToken
	r.v.write(func(s *state) func() {
		for hash, t := range s.resets {
			if t.Expired(now) {
				removed = append(removed, t)
				delete(s.resets, hash)
			}
		}
		return func() {
			for _, t := range removed {
				s.resets[t.TokenHash] = t
			}
		}
	})
	return len(removed), nil
}
