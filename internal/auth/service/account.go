package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
	"github.com/aussiebroadwan/taskboard/internal/auth/store"
	"github.com/aussiebroadwan/taskboard/pkg/cryptox"
	"github.com/aussiebroadwan/taskboard/pkg/idx"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

// AccountService owns user records: registration, credential checks and
// self-service profile changes.
type AccountService struct {
	Store    store.Store
	Hasher   *cryptox.PasswordHasher
	Sessions *SessionService

	// Now is overridable for tests.
	Now func() time.Time
}

// ProfileUpdate carries the optional fields of a profile change. Empty
// strings mean "leave as is".
type ProfileUpdate struct {
	Name            string
	CurrentPassword string
	NewPassword     string
}

func (s *AccountService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Register creates an active account. The email is stored normalised and
// must not belong to any other account, deactivated ones included.
func (s *AccountService) Register(ctx context.Context, email, password, name string) (domain.User, error) {
	if strings.TrimSpace(email) == "" || password == "" || strings.TrimSpace(name) == "" {
		return domain.User{}, ValidationError("All fields are required")
	}
	if !ValidEmail(email) {
		return domain.User{}, ValidationError(MsgInvalidEmail)
	}
	if err := ValidatePassword(password); err != nil {
		return domain.User{}, err
	}
	if !validName(name) {
		return domain.User{}, ValidationError(MsgNameTooShort)
	}

	email = domain.NormalizeEmail(email)
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return domain.User{}, ConflictError("User with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, InternalError("lookup email", err)
	}

	hash, err := s.Hasher.Hash(ctx, password)
	if err != nil {
		return domain.User{}, InternalError("hash password", err)
	}

	now := s.now()
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent registration.
			return domain.User{}, ConflictError("User with this email already exists")
		}
		return domain.User{}, InternalError("create user", err)
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", u.ID, slogx.Email(u.Email))
	return u, nil
}

// FindByEmail looks a user up by email, ignoring case.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	return u, mapUserErr(err)
}

// FindByID looks a user up by id.
func (s *AccountService) FindByID(ctx context.Context, id string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	return u, mapUserErr(err)
}

func mapUserErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return NotFoundError(MsgUserNotFound)
	default:
		return InternalError("load user", err)
	}
}

// Authenticate checks an email/password pair and stamps the login time.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if strings.TrimSpace(email) == "" || password == "" {
		return domain.User{}, ValidationError("Email and password are required")
	}
	if !ValidEmail(email) {
		return domain.User{}, ValidationError(MsgInvalidEmail)
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		log.Info("login for unknown email", slogx.Email(email))
		return domain.User{}, AuthError(MsgInvalidCredentials)
	}
	if err != nil {
		return domain.User{}, InternalError("load user", err)
	}

	if err := s.checkPassword(ctx, password, u.PasswordHash, AuthError(MsgInvalidCredentials)); err != nil {
		log.Info("login with wrong password", "user_id", u.ID)
		return domain.User{}, err
	}
	// Checked after the password so a guess never learns the account exists.
	if !u.IsActive {
		return domain.User{}, AuthError(MsgAccountDeactivated)
	}

	now := s.now()
	if err := s.Store.Users().TouchLastLogin(ctx, u.ID, now); err != nil {
		return domain.User{}, InternalError("stamp last login", err)
	}
	u.LastLogin = &now
	return u, nil
}

// checkPassword verifies password against hash, returning mismatch on a
// wrong password and InternalError for anything else.
func (s *AccountService) checkPassword(ctx context.Context, password, hash string, mismatch error) error {
	err := s.Hasher.Verify(ctx, password, hash)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cryptox.ErrPasswordMismatch):
		return mismatch
	default:
		return InternalError("verify password", err)
	}
}

// UpdateProfile changes the name and/or password. Every check runs before
// anything is written, so a rejected request changes nothing.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (domain.User, error) {
	u, err := s.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	name := strings.TrimSpace(upd.Name)
	if upd.Name != "" && !validName(name) {
		return domain.User{}, ValidationError(MsgNameTooShort)
	}

	var newHash string
	if upd.NewPassword != "" {
		if upd.CurrentPassword == "" {
			return domain.User{}, ValidationError("Current password is required to set new password")
		}
		if err := s.checkPassword(ctx, upd.CurrentPassword, u.PasswordHash, ValidationError(MsgCurrentPasswordWrong)); err != nil {
			return domain.User{}, err
		}
		if err := ValidatePassword(upd.NewPassword); err != nil {
			return domain.User{}, err
		}
		if newHash, err = s.Hasher.Hash(ctx, upd.NewPassword); err != nil {
			return domain.User{}, InternalError("hash password", err)
		}
	}

	if name == "" && newHash == "" {
		return u, nil
	}

	now := s.now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if name != "" {
			if err := tx.Users().UpdateName(ctx, userID, name, now); err != nil {
				return err
			}
		}
		if newHash != "" {
			if err := tx.Users().UpdatePasswordHash(ctx, userID, newHash, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.User{}, mapUserErr(err)
	}

	if newHash != "" {
		slogx.FromContext(ctx).Info("password changed", "user_id", userID)
	}
	return s.FindByID(ctx, userID)
}

// ChangeEmail moves the account to newEmail after re-checking the password.
func (s *AccountService) ChangeEmail(ctx context.Context, userID, newEmail, password string) (domain.User, error) {
	u, err := s.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if strings.TrimSpace(newEmail) == "" || password == "" {
		return domain.User{}, ValidationError("New email and password are required")
	}
	if !ValidEmail(newEmail) {
		return domain.User{}, ValidationError(MsgInvalidEmail)
	}
	if err := s.checkPassword(ctx, password, u.PasswordHash, ValidationError(MsgCurrentPasswordWrong)); err != nil {
		return domain.User{}, err
	}

	newEmail = domain.NormalizeEmail(newEmail)
	if err := s.Store.Users().UpdateEmail(ctx, userID, newEmail, s.now()); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ConflictError("Email already in use")
		}
		return domain.User{}, mapUserErr(err)
	}

	slogx.FromContext(ctx).Info("email changed", "user_id", userID, slogx.Email(newEmail))
	return s.FindByID(ctx, userID)
}

// Deactivate soft-deletes the account after re-checking the password and
// ends every session it has.
func (s *AccountService) Deactivate(ctx context.Context, userID, password string) error {
	u, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if password == "" {
		return ValidationError("Password is required to deactivate account")
	}
	if err := s.checkPassword(ctx, password, u.PasswordHash, ValidationError("Password is incorrect")); err != nil {
		return err
	}

	// Deactivate before purging so Rotate already refuses this user.
	if err := s.Store.Users().Deactivate(ctx, userID, s.now()); err != nil {
		return mapUserErr(err)
	}
	if _, err := s.Sessions.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("account deactivated", "user_id", userID)
	return nil
}

// ListUsers returns every account, oldest first.
func (s *AccountService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, InternalError("list users", err)
	}
	return users, nil
}

// CountUsers returns the number of accounts, active or not.
func (s *AccountService) CountUsers(ctx context.Context) (int, error) {
	n, err := s.Store.Users().Count(ctx)
	if err != nil {
		return 0, InternalError("count users", err)
	}
	return n, nil
}
