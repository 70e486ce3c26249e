package commuter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS commuters (
	id               TEXT PRIMARY KEY,
	seq              BIGSERIAL,
	name             TEXT NOT NULL,
	age              INTEGER NOT NULL,
	gender           TEXT NOT NULL,
	from_location    TEXT NOT NULL,
	to_location      TEXT NOT NULL,
	bio              TEXT NOT NULL DEFAULT '',
	interests        JSONB NOT NULL DEFAULT '[]'::jsonb,
	verified         BOOLEAN NOT NULL DEFAULT FALSE,
	profile_image    TEXT NOT NULL DEFAULT '',
	commute_time     TEXT NOT NULL DEFAULT '',
	route_distance   TEXT NOT NULL DEFAULT '',
	preferred_gender TEXT NOT NULL DEFAULT 'Any',
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS commuters_seq_idx ON commuters (seq);
`

const selectColumns = `id, name, age, gender, from_location, to_location, bio, interests,
	verified, profile_image, commute_time, route_distance, preferred_gender`

// seq is assigned on first insert only, so re-saving keeps the position.
const upsertSQL = `
	INSERT INTO commuters (
		id, name, age, gender, from_location, to_location, bio, interests,
		verified, profile_image, commute_time, route_distance, preferred_gender
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		age = EXCLUDED.age,
		gender = EXCLUDED.gender,
		from_location = EXCLUDED.from_location,
		to_location = EXCLUDED.to_location,
		bio = EXCLUDED.bio,
		interests = EXCLUDED.interests,
		verified = EXCLUDED.verified,
		profile_image = EXCLUDED.profile_image,
		commute_time = EXCLUDED.commute_time,
		route_distance = EXCLUDED.route_distance,
		preferred_gender = EXCLUDED.preferred_gender,
		updated_at = NOW()`

// PostgresDirectory is a Directory backed by the commuters table.
type PostgresDirectory struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("reach database: %w", err)
	}
	return db, nil
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// EnsureSchema creates the commuters table when it does not exist.
func (d *PostgresDirectory) EnsureSchema(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var (
		p         Profile
		interests []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.From, &p.To, &p.Bio, &interests,
		&p.Verified, &p.ProfileImage, &p.CommuteTime, &p.RouteDistance, &p.PreferredGender); err != nil {
		return Profile{}, err
	}
	if err := json.Unmarshal(interests, &p.Interests); err != nil {
		return Profile{}, fmt.Errorf("decode interests of %s: %w", p.ID, err)
	}
	return p, nil
}

func (d *PostgresDirectory) All(ctx context.Context) ([]Profile, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM commuters ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *PostgresDirectory) Get(ctx context.Context, id string) (Profile, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM commuters WHERE id = $1`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (d *PostgresDirectory) GetMany(ctx context.Context, ids []string) ([]*Profile, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM commuters WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*Profile, len(ids))
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		byID[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*Profile, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out, nil
}

func (d *PostgresDirectory) Save(ctx context.Context, p Profile) error {
	args, err := upsertArgs(p)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx, upsertSQL, args...)
	return err
}

// SaveAll upserts profiles in one transaction, optionally emptying the
// table first.
func (d *PostgresDirectory) SaveAll(ctx context.Context, profiles []Profile, truncate bool) error {
	return withTx(ctx, d.db, func(tx *sql.Tx) error {
		if truncate {
			if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE commuters RESTART IDENTITY`); err != nil {
				return fmt.Errorf("truncate: %w", err)
			}
		}
		stmt, err := tx.PrepareContext(ctx, upsertSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range profiles {
			args, err := upsertArgs(p)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert commuter %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

func upsertArgs(p Profile) ([]any, error) {
	if p.ID == "" {
		return nil, errors.New("commuter: save without id")
	}
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	raw, err := json.Marshal(interests)
	if err != nil {
		return nil, err
	}
	return []any{p.ID, p.Name, p.Age, p.Gender, p.From, p.To, p.Bio, string(raw),
		p.Verified, p.ProfileImage, p.CommuteTime, p.RouteDistance, p.PreferredGender}, nil
}

// withTx wraps fn in a transaction: COMMIT on success, ROLLBACK on errors
// or panics.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
