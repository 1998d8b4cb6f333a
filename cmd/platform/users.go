package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/thewebartisan7/platform/auth"
	"github.com/thewebartisan7/platform/idgen"
)

const permUsers = "platform.systems.users"

type userStore struct {
	db *sql.DB
}

func (s *userStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		permissions TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

// seedAdmin inserts the bootstrap admin when no user holds the users
// permission yet.
func (s *userStore) seedAdmin(ctx context.Context, password string) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE permissions LIKE '%' || ? || '%'`, permUsers).
		Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	id := idgen.New()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, permissions, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, "admin", "admin", string(hash), permUsers, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	slog.Info("admin user seeded", "id", id)
	return nil
}

func (s *userStore) authenticate(ctx context.Context, email, password string) (*auth.Claims, error) {
	var id, name, hash, perms string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, password_hash, permissions FROM users WHERE email = ?`, email).
		Scan(&id, &name, &hash, &perms)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, fmt.Errorf("wrong password")
	}
	return &auth.Claims{
		UserID:      id,
		Username:    name,
		Permissions: splitPerms(perms),
	}, nil
}

func (s *userStore) list(ctx context.Context, filter string) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, permissions, created_at FROM users
		 WHERE name LIKE '%' || ? || '%' OR email LIKE '%' || ? || '%'
		 ORDER BY created_at`, filter, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []map[string]any
	for rows.Next() {
		var id, name, email, perms string
		var createdAt int64
		if err := rows.Scan(&id, &name, &email, &perms, &createdAt); err != nil {
			return nil, err
		}
		users = append(users, map[string]any{
			"id": id, "name": name, "email": email,
			"permissions": perms,
			"created_at":  time.UnixMilli(createdAt).Format(time.DateOnly),
		})
	}
	if users == nil {
		users = []map[string]any{}
	}
	return users, rows.Err()
}

func (s *userStore) save(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = idgen.New()
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO users (id, name, email, password_hash, permissions, created_at) VALUES (?, ?, ?, '', ?, ?)`,
			u.ID, u.Name, u.Email, strings.Join(u.Permissions, ","), time.Now().UnixMilli())
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, permissions = ? WHERE id = ?`,
		u.Name, u.Email, strings.Join(u.Permissions, ","), u.ID)
	return err
}

func splitPerms(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// User is the panel's user entity. A blank User resolves route keys
// against its store, so a screen parameter typed "user" binds the matching
// row when the URL carries an identifier and stays blank when it does not.
type User struct {
	ID          string
	Name        string
	Email       string
	Permissions []string

	store *userStore
}

// ResolveByKey looks a user up by id.
func (u *User) ResolveByKey(ctx context.Context, key string) (any, bool, error) {
	var id, name, email, perms string
	err := u.store.db.QueryRowContext(ctx,
		`SELECT id, name, email, permissions FROM users WHERE id = ?`, key).
		Scan(&id, &name, &email, &perms)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &User{ID: id, Name: name, Email: email, Permissions: splitPerms(perms), store: u.store}, true, nil
}
