// Package badger implements a durable, embedded quote log on top of BadgerDB.
//
// Quotes are JSON-encoded under a "quote/" prefix keyed by their big-endian ID,
// so a key scan yields insertion order. IDs come from a Badger sequence and are
// monotonic across restarts (leased ranges that were not used are skipped).
// Writes are synced to disk before SaveQuote returns.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	badgerdb "github.com/dgraph-io/badger/v3"

	"github.com/sig-0/remitrates/storage/types"
)

const sequenceBandwidth = 100

var (
	quotePrefix = []byte("quote/")
	sequenceKey = []byte("seq/quote")
)

var errClosed = errors.New("storage is closed")

type Storage struct {
	db  *badgerdb.DB
	seq *badgerdb.Sequence
}

// Open opens (or creates) the Badger database at the given path.
// Writes are synchronous, so saved quotes survive a process restart
func Open(path string) (*Storage, error) {
	opts := badgerdb.DefaultOptions(path).
		WithSyncWrites(true).
		WithLogger(nil)

	return OpenWithOptions(opts)
}

// OpenInMemory opens a non-durable, in-memory Badger database
func OpenInMemory() (*Storage, error) {
	opts := badgerdb.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)

	return OpenWithOptions(opts)
}

// OpenWithOptions opens the Badger database using the given options
func OpenWithOptions(opts badgerdb.Options) (*Storage, error) {
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("unable to open badger DB: %w", err)
	}

	seq, err := db.GetSequence(sequenceKey, sequenceBandwidth)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("unable to open quote sequence: %w", err)
	}

	return &Storage{
		db:  db,
		seq: seq,
	}, nil
}

// Close releases the ID sequence and closes the database
func (s *Storage) Close() error {
	if s.db == nil {
		return errClosed
	}

	if err := s.seq.Release(); err != nil {
		return fmt.Errorf("unable to release quote sequence: %w", err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("unable to close badger DB: %w", err)
	}

	s.db = nil

	return nil
}

func (s *Storage) SaveQuote(_ context.Context, q *types.Quote) (uint64, error) {
	elem, err := types.PrepareQuote(q)
	if err != nil {
		return 0, err
	}

	next, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("unable to assign quote ID: %w", err)
	}

	// Badger sequences start at 0, IDs start at 1
	elem.ID = next + 1

	data, err := json.Marshal(elem)
	if err != nil {
		return 0, fmt.Errorf("unable to marshal quote: %w", err)
	}

	if err = s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(quoteKey(elem.ID), data)
	}); err != nil {
		return 0, fmt.Errorf("unable to save quote: %w", err)
	}

	return elem.ID, nil
}

func (s *Storage) Quotes(_ context.Context, query *types.QuoteQuery) ([]*types.Quote, error) {
	if query == nil {
		query = &types.QuoteQuery{}
	}

	out := make([]*types.Quote, 0)

	if err := s.scan(func(q *types.Quote) {
		if query.Matches(q) {
			out = append(out, q)
		}
	}); err != nil {
		return nil, fmt.Errorf("unable to fetch quotes: %w", err)
	}

	return types.SortNewestFirst(out, query.Limit), nil
}

func (s *Storage) ListProviders(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	if err := s.scan(func(q *types.Quote) {
		seen[q.Provider] = struct{}{}
	}); err != nil {
		return nil, fmt.Errorf("unable to fetch providers: %w", err)
	}

	return sortedKeys(seen), nil
}

func (s *Storage) ListDestinations(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	if err := s.scan(func(q *types.Quote) {
		seen[q.Destination] = struct{}{}
	}); err != nil {
		return nil, fmt.Errorf("unable to fetch destinations: %w", err)
	}

	return sortedKeys(seen), nil
}

// scan decodes every stored quote, in ID order
func (s *Storage) scan(visit func(*types.Quote)) error {
	return s.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(quotePrefix); it.ValidForPrefix(quotePrefix); it.Next() {
			item := it.Item()

			if err := item.Value(func(val []byte) error {
				var q types.Quote

				if err := json.Unmarshal(val, &q); err != nil {
					return fmt.Errorf("unable to decode quote %x: %w", item.Key(), err)
				}

				visit(&q)

				return nil
			}); err != nil {
				return err
			}
		}

		return nil
	})
}

// quoteKey builds the storage key for the quote ID
func quoteKey(id uint64) []byte {
	key := make([]byte, len(quotePrefix)+8)

	copy(key, quotePrefix)
	binary.BigEndian.PutUint64(key[len(quotePrefix):], id)

	return key
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))

	for v := range set {
		out = append(out, v)
	}

	sort.Strings(out)

	return out
}
