package identity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"gatehouse/cmd/security/password"
)

// Source yields user records at startup.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]UserRecord, error)
}

// LoadAll reads every source in order and rejects usernames seen twice,
// whether within one source or across sources.
func LoadAll(ctx context.Context, sources ...Source) ([]UserRecord, error) {
	const op = "identity.LoadAll"

	var out []UserRecord
	seen := make(map[string]string)

	for _, src := range sources {
		if src == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		recs, err := src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name(), err)
		}
		for _, r := range recs {
			if prev, dup := seen[r.Username]; dup {
				return nil, fmt.Errorf("%s and %s: %w", prev, src.Name(), ConflictError{Op: op, Field: "username", Value: r.Username})
			}
			seen[r.Username] = src.Name()
			out = append(out, r)
		}
	}

	return out, nil
}

// usersFile is the YAML document layout:
//
//	users:
//	  - username: alice
//	    password: s3cret            # hashed at load time
//	    permissions: [upload, admin]
//	  - username: bob
//	    password_hash: 8e39...      # stored hash, used as-is
//	    salt: TOIEIDPG...           # optional; derived from username when empty
//	    permissions: [review]
type usersFile struct {
	Users []userEntry `yaml:"users"`
}

type userEntry struct {
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password"`
	PasswordHash string   `yaml:"password_hash"`
	Salt         string   `yaml:"salt"`
	Permissions  []string `yaml:"permissions"`
}

// FileSource loads users from a YAML file.
type FileSource struct {
	Path string
	// Password hashes plaintext entries; zero value means password.DefaultConfig().
	Password *password.Config
}

// Name implements Source.
func (f FileSource) Name() string { return "file:" + f.Path }

// Load implements Source.
func (f FileSource) Load(ctx context.Context) ([]UserRecord, error) {
	const op = "identity.FileSource.Load"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NotFoundError{Op: op, Resource: f.Path}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg := password.DefaultConfig()
	if f.Password != nil {
		cfg = *f.Password
	}
	return ParseUsers(bytes.NewReader(raw), cfg)
}

// ParseUsers decodes a users document. Unknown fields, duplicate usernames and
// entries carrying both or neither of password/password_hash are rejected.
func ParseUsers(r io.Reader, cfg password.Config) ([]UserRecord, error) {
	const op = "identity.ParseUsers"

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc usersFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, OpError{Op: op, Kind: ErrInvalidInput, Err: err}
	}

	out := make([]UserRecord, 0, len(doc.Users))
	seen := make(map[string]struct{}, len(doc.Users))

	for i, e := range doc.Users {
		if _, dup := seen[e.Username]; dup {
			return nil, ConflictError{Op: op, Field: "username", Value: e.Username}
		}

		rec, err := e.record(cfg)
		if err != nil {
			return nil, fmt.Errorf("users[%d]: %w", i, err)
		}
		seen[e.Username] = struct{}{}
		out = append(out, rec)
	}

	return out, nil
}

func (e userEntry) record(cfg password.Config) (UserRecord, error) {
	const op = "identity.ParseUsers"

	if e.Username == "" {
		return UserRecord{}, invalid(op, "username is required")
	}

	perms, err := ParsePermissions(e.Permissions)
	if err != nil {
		return UserRecord{}, err
	}

	switch {
	case e.Password != "" && e.PasswordHash != "":
		return UserRecord{}, invalid(op, "password and password_hash are mutually exclusive")
	case e.Password != "":
		if e.Salt != "" {
			return UserRecord{}, invalid(op, "salt is only allowed with password_hash")
		}
		return Register(cfg, e.Username, e.Password, perms)
	case e.PasswordHash != "":
		return storedRecord(op, e.Username, e.PasswordHash, e.Salt, perms)
	default:
		return UserRecord{}, invalid(op, "password or password_hash is required")
	}
}

// storedRecord assembles a record from an already-hashed credential.
func storedRecord(op, username, hash, salt string, perms Permissions) (UserRecord, error) {
	if !password.IsEncoded(hash) {
		return UserRecord{}, invalid(op, "password_hash is not a recognized encoding")
	}
	if _, embedded, ok := password.Argon2idInfo(hash); ok {
		// Argon2id hashes carry their salt; the record must use the same one.
		switch {
		case salt == "":
			salt = embedded
		case salt != embedded:
			return UserRecord{}, invalid(op, "salt does not match the salt embedded in password_hash")
		}
	}
	if salt == "" {
		salt = password.DeriveSalt(username)
	}
	return UserRecord{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		Permissions:  perms,
	}, nil
}
