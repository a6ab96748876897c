package identity

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource loads users from a read-only PostgreSQL table.
//
// Expected columns of <schema>.users:
//
//	id            BIGINT / TEXT   ordering only
//	username      TEXT NOT NULL
//	password_hash TEXT NOT NULL
//	salt          TEXT NULL       derived from username when NULL or empty
//	permissions   TEXT[] NULL     permission tags
//
// The pgx pool is owned by the caller; the source never closes it and never writes.
type PostgresSource struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the source.
type PostgresOption func(*PostgresSource) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the schema holding the users table (default "gatehouse").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresSource) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresSource constructs a PostgresSource.
func NewPostgresSource(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresSource, error) {
	src := &PostgresSource{
		pool:   pool,
		schema: "gatehouse",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(src); err != nil {
			return nil, err
		}
	}
	if src.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return src, nil
}

// Name implements Source.
func (s *PostgresSource) Name() string { return "postgres:" + s.schema + ".users" }

// Load implements Source. Rows come back in id order; duplicates are left for LoadAll.
func (s *PostgresSource) Load(ctx context.Context) ([]UserRecord, error) {
	const op = "identity.PostgresSource.Load"

	if s == nil || s.pool == nil {
		return nil, invalid(op, "nil source")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT username, password_hash, COALESCE(salt, ''), COALESCE(permissions, '{}'::text[])
		   FROM `+pgIdent(s.schema, "users")+`
		  ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	type row struct {
		username, hash, salt string
		perms                []string
	}

	raw, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (row, error) {
		var out row
		err := r.Scan(&out.username, &out.hash, &out.salt, &out.perms)
		return out, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]UserRecord, 0, len(raw))
	for _, r := range raw {
		if r.username == "" {
			return nil, invalid(op, "empty username")
		}
		perms, err := ParsePermissions(r.perms)
		if err != nil {
			return nil, fmt.Errorf("%s: user %q: %w", op, r.username, err)
		}
		rec, err := storedRecord(op, r.username, r.hash, r.salt, perms)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", r.username, err)
		}
		out = append(out, rec)
	}

	return out, nil
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}
