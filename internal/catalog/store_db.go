package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

const productColumns = `id, title, description, price, thumbnail, code, status, stock`

// PostgresStore keeps products in a table. Ids come from a sequence, so
// unlike FileStore a deleted id is never handed out again.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS products (
				id          BIGSERIAL PRIMARY KEY,
				title       TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				price       DOUBLE PRECISION NOT NULL DEFAULT 0,
				thumbnail   TEXT NOT NULL DEFAULT '',
				code        TEXT NOT NULL DEFAULT '',
				status      BOOLEAN NOT NULL DEFAULT FALSE,
				stock       BIGINT NOT NULL DEFAULT 0
			)
		`)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			ORDER BY id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var p Product
			if err := scanProduct(rows, &p); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int) (Product, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE id = $1
		`, id)
		return scanProduct(row, &p)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	return p, nil
}

func (s *PostgresStore) Add(ctx context.Context, in ProductInput) (Product, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			INSERT INTO products (title, description, price, thumbnail, code, status, stock)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+productColumns,
			in.Title, in.Description, in.Price, in.Thumbnail, in.Code, in.Status, in.Stock)
		return scanProduct(row, &p)
	})

	if err != nil {
		return Product{}, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return p, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int, patch ProductPatch) (Product, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			UPDATE products SET
				title       = COALESCE($2, title),
				description = COALESCE($3, description),
				price       = COALESCE($4, price),
				thumbnail   = COALESCE($5, thumbnail),
				code        = COALESCE($6, code),
				status      = COALESCE($7, status),
				stock       = COALESCE($8, stock)
			WHERE id = $1
			RETURNING `+productColumns,
			id, patch.Title, patch.Description, patch.Price, patch.Thumbnail, patch.Code, patch.Status, patch.Stock)
		return scanProduct(row, &p)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int) error {
	var affected int64

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})

	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *Product) error {
	return row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.Thumbnail, &p.Code, &p.Status, &p.Stock)
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
