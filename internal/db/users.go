package db

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrEmailTaken is returned when signing up with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNotFound is returned when a user or timeline entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBadCredentials is returned when authentication fails. It does not
	// distinguish an unknown email from a wrong password.
	ErrBadCredentials = errors.New("invalid email or password")
)

const (
	pbkdf2Iterations = 100_000
	pbkdf2KeyLen     = 32
	saltLen          = 16
	tokenLen         = 24 // 48 hex characters
)

// User is an account row. Password material stays in the database and is
// never carried on the struct.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeEmail lowercases and trims an email address for storage and
// lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a new account. The email is normalized before
// storage and must be unique; the password is hashed with PBKDF2-SHA256
// under a fresh per-user salt.
func (db *DB) CreateUser(name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	hash := hashPassword(password, salt)

	user := &User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO users (id, name, email, password_hash, password_salt, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email,
		hex.EncodeToString(hash), hex.EncodeToString(salt), user.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies an email and password pair and returns the matching
// user. Returns ErrBadCredentials for both unknown emails and wrong
// passwords.
func (db *DB) Authenticate(email, password string) (*User, error) {
	email = NormalizeEmail(email)

	var (
		user    User
		hashHex string
		saltHex string
	)
	err := db.QueryRow(
		`SELECT id, name, email, password_hash, password_salt, created_at
		 FROM users WHERE email = ?`, email,
	).Scan(&user.ID, &user.Name, &user.Email, &hashHex, &saltHex, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, fmt.Errorf("corrupt password salt for user %s: %w", user.ID, err)
	}
	stored, err := hex.DecodeString(hashHex)
	if err != nil {
		return nil, fmt.Errorf("corrupt password hash for user %s: %w", user.ID, err)
	}

	if subtle.ConstantTimeCompare(hashPassword(password, salt), stored) != 1 {
		return nil, ErrBadCredentials
	}

	return &user, nil
}

// IssueToken generates a fresh bearer token for the user and stores it with
// the given lifetime. Any previously issued token is replaced.
func (db *DB) IssueToken(userID string, ttl time.Duration) (string, error) {
	raw := make([]byte, tokenLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := hex.EncodeToString(raw)
	expiresAt := time.Now().UTC().Add(ttl)

	res, err := db.Exec(
		`UPDATE users SET token = ?, token_expires_at = ? WHERE id = ?`,
		token, expiresAt, userID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	if affected == 0 {
		return "", ErrNotFound
	}

	return token, nil
}

// UserByToken returns the user holding an unexpired bearer token.
func (db *DB) UserByToken(token string) (*User, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	var user User
	err := db.QueryRow(
		`SELECT id, name, email, created_at FROM users
		 WHERE token = ? AND token_expires_at > ?`,
		token, time.Now().UTC(),
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	return &user, nil
}

// UserByID returns a user by primary key.
func (db *DB) UserByID(id string) (*User, error) {
	var user User
	err := db.QueryRow(
		`SELECT id, name, email, created_at FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return &user, nil
}

func hashPassword(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
}
