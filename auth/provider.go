package auth

import (
	"errors"
	"fmt"
	"sociallink/config"
	"sociallink/db"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

const minPasswordLength = 8

// Identity is an auth user as seen by the provider
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token,omitempty"` // empty when the email must be confirmed first
	ExpiresAt   int64  `json:"expires_at,omitempty"`
}

// Provider owns credentials. Users, profiles and everything else live in our DB.
type Provider interface {
	SignUp(email, password string) (Identity, error)
	SignIn(email, password string) (Identity, error)
	Delete(id string) error
}

// Current is the configured provider, set by Init
var Current Provider

func Init() error {
	switch config.AUTH_PROVIDER {
	case config.AuthProviderLocal:
		if err := db.Instance.AutoMigrate(&Credential{}); err != nil {
			return err
		}
		Current = &LocalProvider{}
	case config.AuthProviderSupabase:
		provider, err := NewSupabaseProvider(config.SUPABASE_URL, config.SUPABASE_ANON_KEY, config.SUPABASE_SERVICE_KEY)
		if err != nil {
			return err
		}
		Current = provider
	default:
		return fmt.Errorf("unknown auth provider %q", config.AUTH_PROVIDER)
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
