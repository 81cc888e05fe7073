package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/todo-api/internal/constants"
	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/models"
	"github.com/yukikurage/todo-api/internal/patch"
	"github.com/yukikurage/todo-api/internal/repository"
	"github.com/yukikurage/todo-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized = errors.New("authentication required")
	// ErrMalformedSession is an ErrUnauthorized whose claim could not be
	// decoded; callers that self-heal purge the session on it.
	ErrMalformedSession = fmt.Errorf("%w: malformed session", ErrUnauthorized)

	ErrUsernameTaken        = errors.New("username already exists")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrUsernameRequired     = errors.New("username is required")
	ErrUsernameTooLong      = fmt.Errorf("username must be at most %d characters", constants.MaxUsernameLength)
	ErrDisplayNameRequired  = errors.New("display name is required")
	ErrPasswordRequired     = errors.New("password is required")
	ErrPasswordTooShort     = fmt.Errorf("password must be at least %d characters", constants.MinPasswordLength)
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles account and session related business logic.
type AuthService struct {
	store  repository.Store
	hasher utils.PasswordHasher
}

// NewAuthService creates a new AuthService.
func NewAuthService(store repository.Store, hasher utils.PasswordHasher) *AuthService {
	return &AuthService{
		store:  store,
		hasher: hasher,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username    string
	DisplayName string
	Password    string
}

// Signup creates a new user.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	username, err := validateUsername(input.Username)
	if err != nil {
		return nil, err
	}
	displayName, err := validateDisplayName(input.DisplayName)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	id := ident.New()
	hashed, err := s.hasher.Hash(input.Password, id)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	var user *models.User
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		exists, err := tx.Users().UsernameExists(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if exists {
			return ErrUsernameTaken
		}

		if _, err := tx.Users().Create(ctx, &id, username, displayName, hashed); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		user, err = tx.Users().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user. Unknown
// users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	hashed, err := s.hasher.Hash(input.Password, user.ID)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	ok, err := s.store.Users().VerifyPassword(ctx, user.ID, hashed)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ParseClaim decodes the session claim without touching storage.
func ParseClaim(claim any) (ident.ID, error) {
	if claim == nil {
		return ident.Nil, ErrUnauthorized
	}
	text, ok := claim.(string)
	if !ok {
		return ident.Nil, ErrMalformedSession
	}
	id, err := ident.Parse(text)
	if err != nil {
		return ident.Nil, ErrMalformedSession
	}
	return id, nil
}

// Authenticate turns a session claim into the id of an active user.
func (s *AuthService) Authenticate(ctx context.Context, claim any) (ident.ID, error) {
	id, err := ParseClaim(claim)
	if err != nil {
		return ident.Nil, err
	}
	if err := ensureActive(ctx, s.store.Users(), id); err != nil {
		return ident.Nil, err
	}
	return id, nil
}

// Me returns the active user behind id.
func (s *AuthService) Me(ctx context.Context, id ident.ID) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateMeInput carries the account fields of a PATCH. A JSON null on any of
// them is ignored, since none of the columns is nullable.
type UpdateMeInput struct {
	Username    patch.Field[*string]
	DisplayName patch.Field[*string]
	Password    patch.Field[*string]
}

// UpdateMe applies a partial update to the caller's own account.
func (s *AuthService) UpdateMe(ctx context.Context, id ident.ID, input UpdateMeInput) error {
	username, _ := patch.Flatten(input.Username)
	displayName, _ := patch.Flatten(input.DisplayName)
	password, _ := patch.Flatten(input.Password)

	username, err := patch.TryMap(username, validateUsername)
	if err != nil {
		return err
	}
	displayName, err = patch.TryMap(displayName, validateDisplayName)
	if err != nil {
		return err
	}
	hashed, err := patch.TryMap(password, func(pw string) ([]byte, error) {
		if err := validatePassword(pw); err != nil {
			return nil, err
		}
		h, err := s.hasher.Hash(pw, id)
		if err != nil {
			return nil, ErrFailedToHashPassword
		}
		return h, nil
	})
	if err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := ensureActive(ctx, tx.Users(), id); err != nil {
			return err
		}

		if name, ok := username.Get(); ok {
			holder, err := tx.Users().FindByUsername(ctx, name)
			switch {
			case err == nil && holder.ID != id:
				return ErrUsernameTaken
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				return fmt.Errorf("failed to check username: %w", err)
			}
		}

		err := tx.Users().Update(ctx, id, repository.UserPatch{
			Username:       username,
			DisplayName:    displayName,
			HashedPassword: hashed,
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
}

// RemoveMe soft deletes the caller's account.
func (s *AuthService) RemoveMe(ctx context.Context, id ident.ID) error {
	if err := s.store.Users().Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}
	return nil
}

// UsernameAvailable reports whether username can be taken by a new account.
func (s *AuthService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	exists, err := s.store.Users().UsernameExists(ctx, strings.TrimSpace(username))
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return !exists, nil
}

func ensureActive(ctx context.Context, users repository.UserRepository, id ident.ID) error {
	valid, err := users.IsValidID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to validate session: %w", err)
	}
	if !valid {
		return ErrUnauthorized
	}
	return nil
}

func validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrUsernameRequired
	}
	if utf8.RuneCountInString(username) > constants.MaxUsernameLength {
		return "", ErrUsernameTooLong
	}
	return username, nil
}

func validateDisplayName(displayName string) (string, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return "", ErrDisplayNameRequired
	}
	return displayName, nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if utf8.RuneCountInString(password) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// IsValidationError reports whether err is caused by bad client input.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrUsernameRequired, ErrUsernameTooLong, ErrDisplayNameRequired,
		ErrPasswordRequired, ErrPasswordTooShort,
		ErrTitleRequired, ErrTitleTooLong, ErrInvalidState, ErrInvalidPriority,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
