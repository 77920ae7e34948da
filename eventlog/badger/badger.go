package badger

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/hupe1980/graphmesh/core"
	"github.com/hupe1980/graphmesh/logging"
)

const keyPrefix = "log/"

// Config holds configuration for the badger-backed sink.
type Config struct {
	// Path is the directory for database files. Required unless InMemory.
	Path string

	// InMemory enables in-memory mode without disk persistence. Useful in
	// tests.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal log output. If nil, internal
	// logging is disabled.
	Logger logging.Logger
}

// DefaultConfig returns durable defaults for production use.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns configuration for tests: no disk I/O, no sync.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts logging.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger logging.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Sink is a durable EventSink persisting each graph's event log in BadgerDB.
// Keys order by graph identity then sequence so ReadLog is a single prefix
// scan. Safe for concurrent use.
type Sink struct {
	db *badger.DB
}

// Open creates and opens a badger-backed sink with the given configuration.
// The caller must Close the sink when done.
func Open(cfg Config) (*Sink, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent event log")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create event log directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open event log database: %w", err)
	}
	return &Sink{db: db}, nil
}

// Close releases the underlying database.
func (s *Sink) Close() error {
	return s.db.Close()
}

// Append persists one event record under its graph's log.
func (s *Sink) Append(ctx context.Context, rec core.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := core.EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", rec.ID, err)
	}
	key := recordKey(rec.GraphID, rec.Sequence)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("append event %s: %w", rec.ID, err)
	}
	return nil
}

// ReadLog returns a graph's persisted records in sequence order.
func (s *Sink) ReadLog(graphID string) ([]core.EventRecord, error) {
	var records []core.EventRecord
	prefix := []byte(keyPrefix + graphID + "/")
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				rec, err := core.DecodeRecord(val)
				if err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read event log for %s: %w", graphID, err)
	}
	return records, nil
}

// GraphIDs lists all graphs with at least one persisted record.
func (s *Sink) GraphIDs() ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			id := graphIDFromKey(it.Item().Key())
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// recordKey builds "log/<graphID>/<sequence>" with a zero-padded sequence so
// lexicographic key order matches append order.
func recordKey(graphID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d", keyPrefix, graphID, seq))
}

func graphIDFromKey(key []byte) string {
	s := string(key)
	if len(s) <= len(keyPrefix) {
		return ""
	}
	s = s[len(keyPrefix):]
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return s[:i]
		}
	}
	return ""
}
