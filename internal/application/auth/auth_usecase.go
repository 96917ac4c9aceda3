package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/auth"
)

// AdminEmail is promoted to the admin role on registration and seeding.
const AdminEmail = "engenhariadahumanidade@gmail.com"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrNotAllowed         = errors.New("email not in allowed list")
	ErrEmailTaken         = errors.New("email already registered")
)

// UserRepository persists accounts.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (auth.User, error)
	FindByID(ctx context.Context, id string) (auth.User, error)
	Create(ctx context.Context, user auth.User) (auth.User, error)
}

// AllowedUserRepository holds the registration allow-list managed in the
// admin area.
type AllowedUserRepository interface {
	IsAllowed(ctx context.Context, email string) (bool, error)
	Add(ctx context.Context, email string) (auth.AllowedUser, error)
	Remove(ctx context.Context, email string) error
	List(ctx context.Context) ([]auth.AllowedUser, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hashed, plain string) bool
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, user auth.User) (string, error)
}

// LoginUseCase verifies credentials and issues a token.
type LoginUseCase struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	now    func() time.Time
}

func NewLoginUseCase(users UserRepository, hasher PasswordHasher, tokens TokenIssuer) *LoginUseCase {
	return &LoginUseCase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	User  auth.User
	Token string
}

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (LoginResult, error) {
	var out LoginResult
	email := auth.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return out, ErrInvalidCredentials
	}

	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return out, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return out, ErrUserDisabled
	}
	if !uc.hasher.Compare(user.Password, input.Password) {
		return out, ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(ctx, user)
	if err != nil {
		return out, fmt.Errorf("issue token: %w", err)
	}

	out.User = user
	out.User.Password = ""
	out.Token = token
	return out, nil
}

// RegisterUseCase creates an account for an allow-listed email.
type RegisterUseCase struct {
	users   UserRepository
	allowed AllowedUserRepository
	hasher  PasswordHasher
	tokens  TokenIssuer
}

func NewRegisterUseCase(users UserRepository, allowed AllowedUserRepository, hasher PasswordHasher, tokens TokenIssuer) *RegisterUseCase {
	return &RegisterUseCase{
		users:   users,
		allowed: allowed,
		hasher:  hasher,
		tokens:  tokens,
	}
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

func (uc *RegisterUseCase) Execute(ctx context.Context, input RegisterInput) (LoginResult, error) {
	var out LoginResult
	email := auth.NormalizeEmail(input.Email)
	if email == "" || len(input.Password) < 6 {
		return out, errors.New("email and password (min 6 chars) required")
	}

	ok, err := uc.allowed.IsAllowed(ctx, email)
	if err != nil {
		return out, fmt.Errorf("check allow list: %w", err)
	}
	// The admin bootstrap account skips the allow list.
	if !ok && email != AdminEmail {
		return out, ErrNotAllowed
	}

	if _, err := uc.users.FindByEmail(ctx, email); err == nil {
		return out, ErrEmailTaken
	}

	hashed, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return out, fmt.Errorf("hash password: %w", err)
	}

	role := auth.RoleUser
	if email == AdminEmail {
		role = auth.RoleAdmin
	}

	user, err := uc.users.Create(ctx, auth.User{
		Email:    email,
		Name:     input.Name,
		Role:     role,
		Status:   auth.StatusActive,
		Password: hashed,
	})
	if err != nil {
		return out, fmt.Errorf("create user: %w", err)
	}

	token, err := uc.tokens.Issue(ctx, user)
	if err != nil {
		return out, fmt.Errorf("issue token: %w", err)
	}

	out.User = user
	out.User.Password = ""
	out.Token = token
	return out, nil
}

// MeUseCase loads the current user by the id embedded in the token claims.
type MeUseCase struct {
	users UserRepository
}

func NewMeUseCase(users UserRepository) *MeUseCase {
	return &MeUseCase{users: users}
}

func (uc *MeUseCase) Execute(ctx context.Context, userID string) (auth.User, error) {
	user, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return auth.User{}, fmt.Errorf("find user: %w", err)
	}
	user.Password = ""
	return user, nil
}
