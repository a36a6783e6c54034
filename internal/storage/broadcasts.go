package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Broadcast errors
var (
	ErrBroadcastNotFound = errors.New("broadcast not found")
	ErrBroadcastExists   = errors.New("broadcast already recorded")
)

// Broadcast is a transaction sent to the network.
type Broadcast struct {
	ID          string
	Coin        string
	TxID        string
	Kind        string // "send" or "sweep"
	Destination string
	Amount      uint64 // paid to Destination, in satoshis
	Fee         uint64
	Inputs      int
	Raw         []byte
	CreatedAt   time.Time
}

// SaveBroadcast records a broadcast. An empty ID is filled with a new UUID.
func (s *Storage) SaveBroadcast(b *Broadcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO broadcasts (
			id, coin, txid, kind, destination, amount, fee, inputs, raw, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID, strings.ToUpper(b.Coin), b.TxID, b.Kind, b.Destination,
		int64(b.Amount), int64(b.Fee), b.Inputs, b.Raw, b.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrBroadcastExists
		}
		return fmt.Errorf("failed to save broadcast: %w", err)
	}
	return nil
}

// GetBroadcast retrieves a broadcast by coin and txid.
func (s *Storage) GetBroadcast(coin, txid string) (*Broadcast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, coin, txid, kind, destination, amount, fee, inputs, raw, created_at
		FROM broadcasts WHERE coin = ? AND txid = ?
	`, strings.ToUpper(coin), txid)

	b, err := scanBroadcast(row)
	if err == sql.ErrNoRows {
		return nil, ErrBroadcastNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get broadcast: %w", err)
	}
	return b, nil
}

// ListBroadcasts returns the newest broadcasts first. An empty coin lists all
// coins; a limit of zero or less lists everything.
func (s *Storage) ListBroadcasts(coin string, limit int) ([]*Broadcast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, coin, txid, kind, destination, amount, fee, inputs, raw, created_at
		FROM broadcasts`
	var args []any
	if coin != "" {
		query += " WHERE coin = ?"
		args = append(args, strings.ToUpper(coin))
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	defer rows.Close()

	var out []*Broadcast
	for rows.Next() {
		b, err := scanBroadcast(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan broadcast: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBroadcast(row scanner) (*Broadcast, error) {
	var b Broadcast
	var amount, fee, createdAt int64
	err := row.Scan(
		&b.ID, &b.Coin, &b.TxID, &b.Kind, &b.Destination,
		&amount, &fee, &b.Inputs, &b.Raw, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	b.Amount = uint64(amount)
	b.Fee = uint64(fee)
	b.CreatedAt = time.Unix(createdAt, 0)
	return &b, nil
}
