// Package telegram validates Telegram WebApp launch data.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingHash = errors.New("init data has no hash")
	ErrBadHash     = errors.New("init data hash mismatch")
	ErrStale       = errors.New("init data is too old")
)

// MaxAge bounds how old auth_date may be before the launch data is refused.
const MaxAge = time.Hour

type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// DisplayName prefers the username and falls back to the first name.
func (u *WebAppUser) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// ValidateInitData checks the WebApp HMAC of initData against botToken and
// the freshness of auth_date. It returns the parsed fields without the hash.
func ValidateInitData(initData, botToken string, now time.Time) (url.Values, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrMissingHash
	}
	values.Del("hash")

	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, ErrBadHash
	}
	if !hmac.Equal(Sign(values, botToken), provided) {
		return nil, ErrBadHash
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrStale
	}
	age := now.Unix() - authDate
	// small skew into the future is tolerated
	if age > int64(MaxAge/time.Second) || age < -300 {
		return nil, ErrStale
	}
	return values, nil
}

// Sign computes the WebApp data hash of values (which must not contain "hash").
func Sign(values url.Values, botToken string) []byte {
	pairs := make([]string, 0, len(values))
	for k, v := range values {
		pairs = append(pairs, k+"="+strings.Join(v, ""))
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(strings.Join(pairs, "\n")))
	return h.Sum(nil)
}

// ParseUser extracts the "user" JSON field of the launch data.
func ParseUser(values url.Values) (*WebAppUser, error) {
	raw := values.Get("user")
	if raw == "" {
		return nil, errors.New("init data has no user")
	}
	var user WebAppUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	return &user, nil
}
