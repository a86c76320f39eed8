package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"baby-name-game/internal/backend"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenTTL          = 7 * 24 * time.Hour
	MinPasswordLength = 6
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrInvalidEmail       = errors.New("please enter a valid email address")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid token")
	ErrOAuthDisabled      = errors.New("google sign-in is not configured")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Service struct {
	store  backend.Service
	secret []byte
	now    func() time.Time
	google *googleProvider
}

func New(store backend.Service, secret string) *Service {
	return &Service{
		store:  store,
		secret: []byte(secret),
		now:    time.Now,
	}
}

type SignUpInput struct {
	Email     string
	Password  string
	Username  string
	FirstName string
	LastName  string
}

// SignUp registers an email/password account and its parent profile.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*backend.Account, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashed := string(hash)
	account, err := s.store.CreateAccount(ctx, backend.CreateAccountInput{
		Email:        email,
		PasswordHash: &hashed,
		Metadata: backend.AccountMetadata{
			Username:  strings.TrimSpace(input.Username),
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
		},
	})
	if err != nil {
		return nil, err
	}
	log.Printf("account created account_id=%s provider=email", account.ID)
	if _, err := s.CurrentParent(ctx, account.ID); err != nil {
		log.Printf("parent profile create failed account_id=%s error=%v", account.ID, err)
	}
	return account, nil
}

// SignIn checks the password and returns a signed session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	account, err := s.store.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if account.PasswordHash == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.IssueToken(account.ID)
}

func (s *Service) IssueToken(accountID uuid.UUID) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates a session token and returns the account id it names.
func (s *Service) ParseToken(raw string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// CurrentParent returns the parent profile, creating it from account metadata on first use.
func (s *Service) CurrentParent(ctx context.Context, accountID uuid.UUID) (*backend.Parent, error) {
	parent, err := s.store.GetParent(ctx, accountID)
	if err == nil {
		return parent, nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		return nil, err
	}
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return s.store.UpsertParent(ctx, accountID, ProfileFromAccount(account))
}

func (s *Service) UpdateParent(ctx context.Context, accountID uuid.UUID, profile backend.ParentProfile) (*backend.Parent, error) {
	return s.store.UpdateParent(ctx, accountID, profile)
}

// ProfileFromAccount derives a display profile from whatever the account carries.
func ProfileFromAccount(account *backend.Account) backend.ParentProfile {
	meta := account.Metadata
	username := strings.TrimSpace(meta.FullName)
	if username == "" {
		username = strings.TrimSpace(meta.Username)
	}
	if username == "" {
		if local, _, ok := strings.Cut(account.Email, "@"); ok && local != "" {
			username = local
		}
	}
	if username == "" {
		username = "User"
	}

	fullParts := strings.Fields(meta.FullName)
	first := strings.TrimSpace(meta.FirstName)
	if first == "" && len(fullParts) > 0 {
		first = fullParts[0]
	}
	last := strings.TrimSpace(meta.LastName)
	if last == "" && len(fullParts) > 1 {
		last = strings.Join(fullParts[1:], " ")
	}
	return backend.ParentProfile{
		Username:  username,
		FirstName: nonEmpty(first),
		LastName:  nonEmpty(last),
	}
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
