package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"Encarte/pkg/kit"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
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

func (s *PostgresStore) Create(ctx context.Context, email, password, role, id string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	err = kit.WithTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO users (id, email, pass_hash, role) VALUES ($1, $2, $3, $4)`,
			id, normalizeEmail(email), hash, role)
		return err
	})
	if isUniqueViolation(err) {
		return ErrEmailExists
	}
	return err
}

func (s *PostgresStore) Verify(ctx context.Context, email, password string) (User, error) {
	var u User
	err := kit.WithTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx,
			`SELECT id, email, pass_hash, role FROM users WHERE email = $1`,
			normalizeEmail(email),
		).Scan(&u.ID, &u.Email, &u.Hash, &u.Role)
	})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return User{}, err
	}

	if err := checkPassword(u.Hash, password); err != nil {
		return User{}, err
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
