// Package pgrepo stores listings in PostgreSQL.
package pgrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/listing"
	"github.com/mohammed-shakir/listing-map/internal/textmatch"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS listings (
	seq        BIGSERIAL,
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	rooms      INTEGER NOT NULL CHECK (rooms >= 0),
	bathrooms  INTEGER NOT NULL CHECK (bathrooms >= 0),
	area       DOUBLE PRECISION NOT NULL CHECK (area > 0),
	price      TEXT NOT NULL,
	type       TEXT NOT NULL,
	latitude   DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
	longitude  DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
	image_url  TEXT
);
CREATE INDEX IF NOT EXISTS listings_seq_idx ON listings (seq);
`

const selectCols = `id, title, rooms, bathrooms, area, price, type, latitude, longitude, image_url`

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type Repo struct {
	db DB
}

var _ listing.Store = (*Repo)(nil)

func New(db DB) *Repo {
	return &Repo{db: db}
}

// Connect opens a pool and makes sure the schema exists.
func Connect(ctx context.Context, dsn string) (*Repo, *pgxpool.Pool, error) {
	if dsn == "" {
		return nil, nil, errors.New("postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	r := New(pool)
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return r, pool, nil
}

func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("pgrepo schema: %w", err)
	}
	return nil
}

func (r *Repo) FetchAll(ctx context.Context) ([]model.Listing, error) {
	return r.queryList(ctx, `SELECT `+selectCols+` FROM listings ORDER BY seq`)
}

func (r *Repo) FetchByID(ctx context.Context, id string) (model.Listing, bool, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectCols+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Listing{}, false, nil
	}
	if err != nil {
		return model.Listing{}, false, fmt.Errorf("pgrepo fetch %q: %w", id, err)
	}
	return l, true, nil
}

// SearchByText matches in SQL; position() avoids escaping LIKE wildcards.
func (r *Repo) SearchByText(ctx context.Context, query string) ([]model.Listing, error) {
	if query == "" {
		return r.FetchAll(ctx)
	}
	return r.queryList(ctx, `SELECT `+selectCols+` FROM listings
		WHERE position($1 in lower(title)) > 0 OR position($1 in lower(type)) > 0
		ORDER BY seq`, textmatch.Lower(query))
}

func (r *Repo) Put(ctx context.Context, l model.Listing) error {
	if err := l.Validate(); err != nil {
		return err
	}
	var img *string
	if l.ImageURL != "" {
		img = &l.ImageURL
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO listings (id, title, rooms, bathrooms, area, price, type, latitude, longitude, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			rooms = EXCLUDED.rooms,
			bathrooms = EXCLUDED.bathrooms,
			area = EXCLUDED.area,
			price = EXCLUDED.price,
			type = EXCLUDED.type,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			image_url = EXCLUDED.image_url`,
		l.ID, l.Title, l.Rooms, l.Bathrooms, l.Area, l.Price, l.Type,
		l.Location.Latitude, l.Location.Longitude, img)
	if err != nil {
		return fmt.Errorf("pgrepo put %q: %w", l.ID, err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("pgrepo delete %q: %w", id, err)
	}
	return nil
}

// Seed inserts listings that are not stored yet; existing rows are left alone.
func (r *Repo) Seed(ctx context.Context, listings []model.Listing) error {
	if err := model.ValidateSet(listings); err != nil {
		return err
	}
	for _, l := range listings {
		_, ok, err := r.FetchByID(ctx, l.ID)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if err := r.Put(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

func (r *Repo) queryList(ctx context.Context, sql string, args ...any) ([]model.Listing, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("pgrepo query: %w", err)
	}
	defer rows.Close()

	var out []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("pgrepo scan: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgrepo rows: %w", err)
	}
	if out == nil {
		out = []model.Listing{}
	}
	return out, nil
}

func scanListing(row pgx.Row) (model.Listing, error) {
	var (
		l   model.Listing
		img *string
	)
	err := row.Scan(&l.ID, &l.Title, &l.Rooms, &l.Bathrooms, &l.Area, &l.Price, &l.Type,
		&l.Location.Latitude, &l.Location.Longitude, &img)
	if err != nil {
		return model.Listing{}, err
	}
	if img != nil {
		l.ImageURL = *img
	}
	return l, nil
}
