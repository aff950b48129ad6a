package flyer

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

const supabaseTable = "flyer_entries"

// SupabaseStore keeps entries in a Supabase table through PostgREST. The
// client has no context support, so ctx is only checked before each call.
type SupabaseStore struct {
	client *supabase.Client
}

func NewSupabaseStore(client *supabase.Client) *SupabaseStore {
	return &SupabaseStore{client: client}
}

func (s *SupabaseStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.client.From(supabaseTable).Select("id", "", false).Limit(1, "").Execute()
	if err != nil {
		return fmt.Errorf("supabase ping: %w", err)
	}
	return nil
}

func (s *SupabaseStore) Create(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.client.From(supabaseTable).Insert(e, false, "", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("supabase insert entry: %w", err)
	}
	return nil
}

func (s *SupabaseStore) List(ctx context.Context, category Category) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := s.client.From(supabaseTable).Select("*", "", false)
	if category != "" {
		q = q.Eq("category", string(category))
	}

	var out []Entry
	if _, err := q.ExecuteTo(&out); err != nil {
		return nil, fmt.Errorf("supabase list entries: %w", err)
	}
	if out == nil {
		out = []Entry{}
	}
	sortEntries(out)
	return out, nil
}

func (s *SupabaseStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var deleted []Entry
	_, err := s.client.From(supabaseTable).Delete("representation", "").Eq("id", id).ExecuteTo(&deleted)
	if err != nil {
		return fmt.Errorf("supabase delete entry: %w", err)
	}
	if len(deleted) == 0 {
		return ErrNotFound
	}
	return nil
}
