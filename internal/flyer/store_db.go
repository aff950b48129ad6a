package flyer

import (
	"context"
	"database/sql"
	"time"

	"Encarte/pkg/kit"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return kit.WithTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Create(ctx context.Context, e Entry) error {
	return kit.WithTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO flyer_entries (id, category, product_name, price_cents, unit, notes, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, e.ID, string(e.Category), e.ProductName, e.PriceCents, e.Unit, e.Notes, e.CreatedBy, e.CreatedAt)
		return err
	})
}

func (s *PostgresStore) List(ctx context.Context, category Category) ([]Entry, error) {
	var out []Entry

	err := kit.WithTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, category, product_name, price_cents, unit, notes, created_by, created_at
			FROM flyer_entries
			WHERE $1 = '' OR category = $1
			ORDER BY created_at ASC, id ASC
		`, string(category))
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Entry, 0, 32)
		for rows.Next() {
			var (
				e   Entry
				cat string
			)
			if err := rows.Scan(&e.ID, &cat, &e.ProductName, &e.PriceCents, &e.Unit, &e.Notes, &e.CreatedBy, &e.CreatedAt); err != nil {
				return err
			}
			e.Category = Category(cat)
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return kit.WithTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM flyer_entries WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
