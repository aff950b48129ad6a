package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

// SupabaseStore delegates users to Supabase Auth. Supabase assigns ids, so
// the id passed to Create is ignored.
type SupabaseStore struct {
	client *supabase.Client
}

func NewSupabaseStore(client *supabase.Client) *SupabaseStore {
	return &SupabaseStore{client: client}
}

func (s *SupabaseStore) Ping(context.Context) error {
	if _, err := s.client.Auth.HealthCheck(); err != nil {
		return fmt.Errorf("supabase auth health: %w", err)
	}
	return nil
}

func (s *SupabaseStore) Create(_ context.Context, email, password, role, _ string) error {
	_, err := s.client.Auth.Signup(types.SignupRequest{
		Email:    normalizeEmail(email),
		Password: normalizePassword(password),
		Data:     map[string]interface{}{"role": role},
	})
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "already registered") {
		return ErrEmailExists
	}
	return fmt.Errorf("supabase signup: %w", err)
}

func (s *SupabaseStore) Verify(_ context.Context, email, password string) (User, error) {
	resp, err := s.client.Auth.SignInWithEmailPassword(normalizeEmail(email), normalizePassword(password))
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	role := RoleStaff
	if r, ok := resp.User.UserMetadata["role"].(string); ok && r != "" {
		role = r
	}

	return User{
		ID:    resp.User.ID.String(),
		Email: resp.User.Email,
		Role:  role,
	}, nil
}

func (s *SupabaseStore) Recover(_ context.Context, email string) error {
	return s.client.Auth.Recover(types.RecoverRequest{Email: normalizeEmail(email)})
}
