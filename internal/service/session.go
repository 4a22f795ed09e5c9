package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"olo_mining/internal/domain"
	"olo_mining/internal/repository"
	"olo_mining/internal/telegram"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session is what a client keeps to talk to its install.
type Session struct {
	InstallID string       `json:"install_id"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type installClaims struct {
	InstallID string `json:"install_id"`
	jwt.RegisteredClaims
}

// SessionService creates installs and issues the HS256 tokens that scope
// every request to one of them.
type SessionService struct {
	installs *repository.Installs
	secret   []byte
	ttl      time.Duration
	botToken string
	devMode  bool
	now      func() time.Time
}

func NewSessionService(installs *repository.Installs, secret string, ttl time.Duration, botToken string, devMode bool) *SessionService {
	return &SessionService{
		installs: installs,
		secret:   []byte(secret),
		ttl:      ttl,
		botToken: botToken,
		devMode:  devMode,
		now:      time.Now,
	}
}

// Create opens a fresh install. With Telegram launch data the new user takes
// its Telegram id and name; without it the defaults apply.
func (s *SessionService) Create(ctx context.Context, initData string) (*Session, error) {
	telegramID, username, err := s.identity(initData)
	if err != nil {
		return nil, err
	}

	installID := uuid.NewString()
	unlock := s.installs.Lock(installID)
	u, err := s.installs.Open(installID).EnsureUser(ctx, telegramID, username)
	unlock()
	if err != nil {
		return nil, err
	}

	token, exp, err := s.Issue(installID)
	if err != nil {
		return nil, err
	}
	return &Session{InstallID: installID, Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *SessionService) identity(initData string) (telegramID, username string, err error) {
	if initData == "" {
		return "", "", nil
	}

	var user *telegram.WebAppUser
	if s.devMode || s.botToken == "" {
		values, perr := url.ParseQuery(initData)
		if perr != nil {
			return "", "", ErrInvalidInitData
		}
		user, err = telegram.ParseUser(values)
	} else {
		values, verr := telegram.ValidateInitData(initData, s.botToken, s.now())
		if verr != nil {
			return "", "", ErrInvalidInitData
		}
		user, err = telegram.ParseUser(values)
	}
	if err != nil {
		return "", "", ErrInvalidInitData
	}
	return strconv.FormatInt(user.ID, 10), user.DisplayName(), nil
}

// Issue signs a token for an existing install.
func (s *SessionService) Issue(installID string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := installClaims{
		InstallID: installID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse returns the install id of a valid token.
func (s *SessionService) Parse(tokenString string) (string, error) {
	var claims installClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.InstallID == "" {
		return "", ErrInvalidToken
	}
	return claims.InstallID, nil
}
