package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goserg/arena/auth/storage"
	"github.com/goserg/arena/auth/users"
	"github.com/goserg/arena/internal/normalize"
)

const CookieName = "token"

var ErrNotAuthorized = errors.New("unauthorized")

type Service struct {
	storage storage.AuthStorage
	cfg     Config
	log     *logrus.Entry
	now     func() time.Time

	mu       sync.Mutex
	failures map[string][]time.Time
}

// New creates the service and seeds the operator account when a password for
// it is configured and the account does not exist yet.
func New(ctx context.Context, l *logrus.Logger, cfg Config, storage storage.AuthStorage) (*Service, error) {
	s := Service{
		cfg:      cfg,
		storage:  storage,
		log:      l.WithField("from", "auth-service"),
		now:      time.Now,
		failures: make(map[string][]time.Time),
	}
	if cfg.OperatorEmail != "" && cfg.OperatorPassword != "" {
		if err := s.seedOperator(ctx); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func (s *Service) seedOperator(ctx context.Context) error {
	_, err := s.storage.GetUserByEmail(ctx, s.cfg.OperatorEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return err
	}
	_, err = s.CreateUser(ctx, s.cfg.OperatorEmail, s.cfg.OperatorPassword)
	if err != nil {
		return err
	}
	s.log.WithField("email", normalize.Email(s.cfg.OperatorEmail)).Info("operator account created")
	return nil
}

func (s *Service) CreateUser(ctx context.Context, email string, password string) (users.User, error) {
	email, err := parseEmail(email)
	if err != nil {
		return users.User{}, err
	}
	if password == "" {
		return users.User{}, errors.New("password is required")
	}
	salt, err := randomSalt()
	if err != nil {
		return users.User{}, err
	}
	user := users.User{
		ID:           uuid.New(),
		Email:        email,
		RegisteredAt: s.now(),
	}
	err = s.storage.CreateUser(ctx, user, generateSecret(password, s.cfg.PasswordPepper, salt))
	if err != nil {
		return users.User{}, err
	}
	return user, nil
}

// SignIn checks an email and password. Every refusal is an *AuthError.
func (s *Service) SignIn(ctx context.Context, email string, password string) (users.User, error) {
	email, err := parseEmail(email)
	if err != nil {
		return users.User{}, err
	}
	if s.throttled(email) {
		return users.User{}, newAuthError(CodeTooManyRequests, nil)
	}

	userSecret, err := s.storage.GetUserSecret(ctx, users.User{Email: email})
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.recordFailure(email)
			return users.User{}, s.refuse(CodeUserNotFound)
		}
		return users.User{}, newAuthError(CodeUnknown, err)
	}
	secret := generateSecret(password, s.cfg.PasswordPepper, userSecret.Salt)
	if subtle.ConstantTimeCompare(secret.PasswordHash, userSecret.PasswordHash) != 1 {
		s.recordFailure(email)
		return users.User{}, s.refuse(CodeWrongPassword)
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return users.User{}, newAuthError(CodeUnknown, err)
	}
	s.clearFailures(email)
	s.log.WithField("email", email).Info("signed in")
	return user, nil
}

func (s *Service) refuse(code Code) *AuthError {
	if s.cfg.HideUserExistence {
		code = CodeInvalidCredential
	}
	return newAuthError(code, nil)
}

func parseEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", newAuthError(CodeInvalidEmail, err)
	}
	return normalize.Email(email), nil
}

func (s *Service) throttled(email string) bool {
	if s.cfg.MaxAttempts <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	recent := s.recent(email)
	return len(recent) >= s.cfg.MaxAttempts
}

// recent drops failures outside the window. Caller holds s.mu.
func (s *Service) recent(email string) []time.Time {
	cutoff := s.now().Add(-s.cfg.AttemptWindow)
	kept := s.failures[email][:0]
	for _, t := range s.failures[email] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(s.failures, email)
		return nil
	}
	s.failures[email] = kept
	return kept
}

func (s *Service) recordFailure(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[email] = append(s.recent(email), s.now())
	s.log.WithField("email", email).Warn("sign-in refused")
}

func (s *Service) clearFailures(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, email)
}

// GenerateToken signs a token whose subject is a browser session id.
func (s *Service) GenerateToken(sessionID uuid.UUID) (string, time.Time, error) {
	expiresIn, err := time.ParseDuration(s.cfg.Expiration)
	if err != nil {
		return "", time.Time{}, err
	}
	now := s.now()
	expirationTime := now.Add(expiresIn)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		ExpiresAt: expirationTime.Unix(),
		IssuedAt:  now.Unix(),
		Subject:   sessionID.String(),
	})
	tokenString, err := token.SignedString([]byte(s.cfg.Token))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expirationTime, nil
}

func (s *Service) GenerateJWTCookie(sessionID uuid.UUID, host string) (*fiber.Cookie, error) {
	tokenString, expirationTime, err := s.GenerateToken(sessionID)
	if err != nil {
		return nil, err
	}
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    tokenString,
		Path:     "/",
		Domain:   host,
		Expires:  expirationTime,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}, nil
}

// ParseToken returns the session id of a valid token.
func (s *Service) ParseToken(tokenString string) (uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, ErrNotAuthorized
	}
	token, err := jwt.ParseWithClaims(tokenString, &jwt.StandardClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.Token), nil
	})
	if err != nil {
		return uuid.Nil, errors.Join(ErrNotAuthorized, err)
	}
	claims, ok := token.Claims.(*jwt.StandardClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrNotAuthorized
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.Join(ErrNotAuthorized, err)
	}
	return id, nil
}

func randomSalt() ([]byte, error) {
	salt := make([]byte, 8)
	_, err := rand.Read(salt)
	if err != nil {
		return nil, err
	}
	return salt, nil
}

func generateSecret(password string, pepper string, salt []byte) users.Secret {
	sha := sha256.New()
	sha.Write([]byte(pepper + password))

	sha.Write(salt)
	return users.Secret{
		PasswordHash: sha.Sum(nil),
		Salt:         salt,
	}
}
