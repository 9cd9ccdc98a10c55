// Package jsonfile implements the order sink as JSON files on local disk:
// an append-only history file plus one file per order. This matches the
// hand-off format expected by the kitchen-side tooling that tails the
// orders directory.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/voxmenu/voxmenu/internal/order"
	"github.com/voxmenu/voxmenu/internal/orderstore"
)

// historyFile is the append-only order history within the orders directory.
const historyFile = "orders_history.json"

// Compile-time interface check.
var _ orderstore.Sink = (*Store)(nil)

// Store is the JSON-file [orderstore.Sink]. All methods are safe for
// concurrent use; a single mutex serialises the read-modify-write of the
// history file.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates the orders directory if needed and returns a Store writing
// into it.
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = "orders"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create orders dir %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// AppendOrder implements [orderstore.Sink]. The snapshot is appended to the
// history file and written as an individual <order-id>.json file. A
// snapshot whose ID is already present in the history returns
// [orderstore.ErrDuplicateOrder] without rewriting anything.
func (s *Store) AppendOrder(ctx context.Context, snapshot order.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("jsonfile: %w", err)
	}
	if snapshot.ID == "" {
		return fmt.Errorf("jsonfile: snapshot without order ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.readHistory()
	if err != nil {
		return err
	}
	for _, existing := range history {
		if existing.ID == snapshot.ID {
			return fmt.Errorf("jsonfile: order %s: %w", snapshot.ID, orderstore.ErrDuplicateOrder)
		}
	}
	history = append(history, snapshot)

	if err := s.writeJSON(filepath.Join(s.dir, historyFile), history); err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(s.dir, snapshot.ID+".json"), snapshot)
}

// readHistory loads the history file, treating a missing file as empty.
func (s *Store) readHistory() ([]order.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, historyFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read history: %w", err)
	}
	var history []order.Snapshot
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("jsonfile: parse history: %w", err)
	}
	return history, nil
}

// writeJSON marshals v with indentation and writes it atomically via a
// temp file rename.
func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: marshal %q: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("jsonfile: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("jsonfile: rename %q: %w", path, err)
	}
	return nil
}
