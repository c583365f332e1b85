package service

import (
	"context"
	"errors"
)

// SeedUser is a development account created at startup.
type SeedUser struct {
	Email    string
	Password string
	Name     string
}

// DevSeedUsers are the accounts a local frontend expects to log in with.
var DevSeedUsers = []SeedUser{
	{Email: "test@example.com", Password: "TestPassword123!", Name: "Test User"},
	{Email: "admin@example.com", Password: "AdminPass123!", Name: "Admin User"},
	{Email: "user@example.com", Password: "UserPass123!", Name: "Regular User"},
}

// Seed registers each user that does not exist yet and returns how many it
// created. Existing accounts are left alone, so seeding a persistent store
// twice is harmless.
func (s *AccountService) Seed(ctx context.Context, users []SeedUser) (int, error) {
	var created int
	for _, su := range users {
		_, err := s.Register(ctx, su.Email, su.Password, su.Name)
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrConflict):
		default:
			return created, err
		}
	}
	return created, nil
}
