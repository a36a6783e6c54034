package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vanity key errors
var (
	ErrVanityKeyNotFound = errors.New("vanity key not found")
	ErrVanityKeyExists   = errors.New("vanity key already stored for this address")
)

// VanityKey is an address found by the vanity search. The private key is only
// stored sealed.
type VanityKey struct {
	ID         string
	Coin       string
	Address    string
	Kind       string
	Pattern    string
	Compressed bool
	SealedKey  []byte // JSON encoded wallet.SealedKey
	Candidates uint64 // keys tried before the hit
	CreatedAt  time.Time
}

// SaveVanityKey stores a found key. An empty ID is filled with a new UUID.
func (s *Storage) SaveVanityKey(k *VanityKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(k.SealedKey) == 0 {
		return fmt.Errorf("vanity key for %s is not sealed", k.Address)
	}
	if k.ID == "" {
		k.ID = uuid.New().String()
	}
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO vanity_keys (
			id, coin, address, kind, pattern, compressed, sealed_key, candidates, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		k.ID, strings.ToUpper(k.Coin), k.Address, k.Kind, k.Pattern,
		k.Compressed, k.SealedKey, int64(k.Candidates), k.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrVanityKeyExists
		}
		return fmt.Errorf("failed to save vanity key: %w", err)
	}
	return nil
}

// GetVanityKey retrieves a found key by address.
func (s *Storage) GetVanityKey(addr string) (*VanityKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, coin, address, kind, pattern, compressed, sealed_key, candidates, created_at
		FROM vanity_keys WHERE address = ?
	`, addr)

	k, err := scanVanityKey(row)
	if err == sql.ErrNoRows {
		return nil, ErrVanityKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vanity key: %w", err)
	}
	return k, nil
}

// ListVanityKeys returns the found keys of coin, or of every coin when coin is
// empty, oldest first.
func (s *Storage) ListVanityKeys(coin string) ([]*VanityKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, coin, address, kind, pattern, compressed, sealed_key, candidates, created_at
		FROM vanity_keys`
	var args []any
	if coin != "" {
		query += " WHERE coin = ?"
		args = append(args, strings.ToUpper(coin))
	}
	query += " ORDER BY created_at, rowid"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list vanity keys: %w", err)
	}
	defer rows.Close()

	var keys []*VanityKey
	for rows.Next() {
		k, err := scanVanityKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vanity key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// DeleteVanityKey removes a found key.
func (s *Storage) DeleteVanityKey(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM vanity_keys WHERE address = ?", addr)
	if err != nil {
		return fmt.Errorf("failed to delete vanity key: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrVanityKeyNotFound
	}
	return nil
}

func scanVanityKey(row scanner) (*VanityKey, error) {
	var k VanityKey
	var candidates, createdAt int64
	err := row.Scan(
		&k.ID, &k.Coin, &k.Address, &k.Kind, &k.Pattern,
		&k.Compressed, &k.SealedKey, &candidates, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	k.Candidates = uint64(candidates)
	k.CreatedAt = time.Unix(createdAt, 0)
	return &k, nil
}
