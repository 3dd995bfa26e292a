package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrUnavailable is returned when no viewer identity has been resolved.
// Mutating actions must abort with this error before touching the network.
var ErrUnavailable = errors.New("identity not available")

// User is the viewer identity supplied by the Telegram host once the
// mini app is ready.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Validator checks Telegram WebApp initData signatures against the bot
// token and extracts the embedded user record.
type Validator struct {
	botToken string
	maxAge   time.Duration // 0 disables the auth_date freshness check
}

func NewValidator(botToken string, maxAge time.Duration) *Validator {
	return &Validator{botToken: botToken, maxAge: maxAge}
}

// Validate verifies the initData query string and returns the user it
// carries. The signature scheme is the one Telegram documents: the
// secret key is HMAC-SHA256("WebAppData", bot token), and the hash field
// must equal HMAC-SHA256(secret, data-check-string) where the
// data-check-string is all other fields as sorted key=value lines.
func (v *Validator) Validate(initData string) (*User, error) {
	if v.botToken == "" {
		return nil, fmt.Errorf("bot token not configured")
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse init data: %w", err)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, fmt.Errorf("init data has no hash")
	}

	if !hmac.Equal([]byte(gotHash), []byte(v.expectedHash(values))) {
		return nil, fmt.Errorf("init data signature mismatch")
	}

	if v.maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid auth_date: %w", err)
		}
		if time.Since(time.Unix(authDate, 0)) > v.maxAge {
			return nil, fmt.Errorf("init data expired")
		}
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, fmt.Errorf("init data has no user")
	}

	var user User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("init data user has no id")
	}

	return &user, nil
}

func (v *Validator) expectedHash(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	checkString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(v.botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	return hex.EncodeToString(mac.Sum(nil))
}

// Provider supplies the current viewer identity once the host has made
// it available. Resolve returns ErrUnavailable until then.
type Provider interface {
	Resolve() (*User, error)
}

// Await polls the provider until it yields an identity, with a bounded
// number of attempts so a missing host integration fails loudly instead
// of polling forever.
func Await(ctx context.Context, p Provider, attempts uint64, interval time.Duration) (*User, error) {
	var user *User
	backoff := retry.WithMaxRetries(attempts, retry.NewConstant(interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		u, err := p.Resolve()
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}
	return user, nil
}
