package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

// GoTrue is the part of the Supabase Auth client we use
type GoTrue interface {
	Signup(req types.SignupRequest) (*types.SignupResponse, error)
	Token(req types.TokenRequest) (*types.TokenResponse, error)
	AdminDeleteUser(req types.AdminDeleteUserRequest) error
}

// SupabaseProvider delegates credentials to Supabase Auth (GoTrue)
type SupabaseProvider struct {
	public GoTrue
	admin  GoTrue // nil without a service key
}

func NewSupabaseProvider(projectURL, anonKey, serviceKey string) (*SupabaseProvider, error) {
	client, err := supabase.NewClient(projectURL, anonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	p := &SupabaseProvider{public: client.Auth}
	if serviceKey != "" {
		adminClient, err := supabase.NewClient(projectURL, serviceKey, nil)
		if err != nil {
			return nil, fmt.Errorf("supabase admin client: %w", err)
		}
		p.admin = adminClient.Auth.WithToken(serviceKey)
	}
	return p, nil
}

func (p *SupabaseProvider) SignUp(email, password string) (Identity, error) {
	if err := checkPassword(password); err != nil {
		return Identity{}, err
	}
	resp, err := p.public.Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already registered") {
			return Identity{}, ErrEmailRegistered
		}
		return Identity{}, fmt.Errorf("supabase signup: %w", err)
	}
	// With autoconfirm the response is a session, otherwise just the user
	identity := Identity{ID: resp.User.ID.String(), Email: resp.User.Email}
	if resp.User.ID == uuid.Nil {
		identity = Identity{
			ID:          resp.Session.User.ID.String(),
			Email:       resp.Session.User.Email,
			AccessToken: resp.Session.AccessToken,
			ExpiresAt:   resp.Session.ExpiresAt,
		}
	}
	if identity.ID == uuid.Nil.String() {
		return Identity{}, errors.New("supabase signup returned no user")
	}
	return identity, nil
}

func (p *SupabaseProvider) SignIn(email, password string) (Identity, error) {
	resp, err := p.public.Token(types.TokenRequest{GrantType: "password", Email: email, Password: password})
	if err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{
		ID:          resp.User.ID.String(),
		Email:       resp.User.Email,
		AccessToken: resp.AccessToken,
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

func (p *SupabaseProvider) Delete(id string) error {
	if p.admin == nil {
		return errors.New("SUPABASE_SERVICE_KEY is needed to delete auth users")
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	return p.admin.AdminDeleteUser(types.AdminDeleteUserRequest{UserID: userID})
}
