// Package auth verifies and registers account credentials against the
// remote service. Passwords are bcrypt-hashed before they leave the
// process; the session layer never handles raw password material.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sucheta/jobport/internal/client/api"
	"github.com/sucheta/jobport/internal/models"
)

var (
	// ErrInvalidCredentials is returned when the email is unknown or the
	// password does not match. The two cases are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrEmailTaken is returned by SignUp when the email is already registered.
	ErrEmailTaken = errors.New("auth: email already registered")
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Directory is the slice of the remote service the authenticator needs.
type Directory interface {
	UserByEmail(ctx context.Context, email string) (models.Identity, error)
	CreateUser(ctx context.Context, u models.Identity) (models.Identity, error)
}

// Authenticator performs credential checks and registration.
type Authenticator struct {
	dir Directory
}

// New returns an Authenticator backed by dir.
func New(dir Directory) *Authenticator {
	return &Authenticator{dir: dir}
}

// SignIn verifies email/password against the directory and returns the
// matching identity with its hash cleared. Unknown email and wrong password
// both yield ErrInvalidCredentials; transport failures pass through so the
// caller can distinguish "try again" from "wrong password".
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (models.Identity, error) {
	u, err := a.dir.UserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return models.Identity{}, ErrInvalidCredentials
		}
		return models.Identity{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return models.Identity{}, ErrInvalidCredentials
	}
	return u.Sanitized(), nil
}

// SignUpParams carries the registration form fields.
type SignUpParams struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	Role        models.Role
}

// SignUp validates the form, hashes the password and registers the account.
// Returns the stored identity with its hash cleared.
func (a *Authenticator) SignUp(ctx context.Context, p SignUpParams) (models.Identity, error) {
	if p.Name == "" {
		return models.Identity{}, errors.New("auth: full name is required")
	}
	if !strings.Contains(p.Email, "@") {
		return models.Identity{}, fmt.Errorf("auth: invalid email %q", p.Email)
	}
	if len(p.Password) < 6 {
		return models.Identity{}, errors.New("auth: password must be at least 6 characters long")
	}
	if !phonePattern.MatchString(p.PhoneNumber) {
		return models.Identity{}, errors.New("auth: phone number must be exactly 10 digits")
	}
	if !p.Role.Valid() {
		return models.Identity{}, fmt.Errorf("auth: unknown role %q", p.Role)
	}

	email := strings.ToLower(p.Email)
	if _, err := a.dir.UserByEmail(ctx, email); err == nil {
		return models.Identity{}, ErrEmailTaken
	} else if !errors.Is(err, api.ErrNotFound) {
		return models.Identity{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Identity{}, fmt.Errorf("auth: hash password: %w", err)
	}

	created, err := a.dir.CreateUser(ctx, models.Identity{
		Email:        email,
		Name:         p.Name,
		PhoneNumber:  p.PhoneNumber,
		PasswordHash: string(hash),
		Role:         p.Role,
	})
	if err != nil {
		return models.Identity{}, err
	}
	return created.Sanitized(), nil
}
