package plugin

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	Mt "github.com/meticai/meticd/types"
)

// Key namespaces inside the one Badger instance.
// Shots sort chronologically under their prefix, the rest are point
// lookups. The settings key must not share the shot prefix byte or
// history scans would try to gob-decode it as a Shot.
var (
	shotPrefix    = []byte("s")
	profilePrefix = []byte("profile:")
	settingsKey   = []byte("meta:settings")
)

// ErrNotFound is returned for lookups that miss, wrapping badger's own.
var ErrNotFound = errors.New("not found")

type BadgerOutput struct {
	MU        sync.Mutex
	DB        *badger.DB
	BatchSize int
	Buffer    []*Mt.Shot
}

func NewBadgerOutput(path string, batchSize int) (*BadgerOutput, error) {
	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("BadgerOutput failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	slog.Info("BadgerOutput opened",
		slog.String("path", path),
		slog.Int("batchSize", batchSize))

	return &BadgerOutput{
		DB:        db,
		BatchSize: batchSize,
		Buffer:    make([]*Mt.Shot, 0, batchSize),
	}, nil
}

// WriteShot queues up a batch of shots,
// when batchsize is reached, it calls Flush()
// which calls WriteBatch() with the new batch
func (bo *BadgerOutput) WriteShot(shot *Mt.Shot) error {
	bo.MU.Lock()
	defer bo.MU.Unlock()

	bo.Buffer = append(bo.Buffer, shot)
	if len(bo.Buffer) >= bo.BatchSize {
		return bo.flushLocked() // private Flush that does not lock
	}
	return nil
}

// WriteBatch performs the key/value creation to be stored
// and actually calls BadgerDB to write the data
func (bo *BadgerOutput) WriteBatch(shots []*Mt.Shot) error {
	wb := bo.DB.NewWriteBatch()
	defer wb.Cancel()

	for _, s := range shots {
		k := ShotKey(s)
		v, err := ShotEncode(s)
		if err != nil {
			slog.Error("BadgerOutput failed to encode shot",
				slog.Any("error", err),
				slog.String("shot", s.ID))
			return fmt.Errorf("shot encode error: %w", err)
		}
		if err := wb.Set(k, v); err != nil {
			slog.Error("BadgerOutput failed to set key in batch",
				slog.Any("error", err),
				slog.Time("shotTime", s.StartTime),
				slog.String("profile", s.Profile))
			return fmt.Errorf("write batch error: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		slog.Error("BadgerOutput failed to flush batch", slog.Any("error", err))
		return fmt.Errorf("batch flush error: %w", err)
	}

	return nil
}

// Flush is the public method that blocks,
// it sends data to WriteBatch and then clears the buffer
func (bo *BadgerOutput) Flush() error {
	bo.MU.Lock()
	defer bo.MU.Unlock()

	if len(bo.Buffer) == 0 {
		return nil
	}

	err := bo.WriteBatch(bo.Buffer) // Delegate to WriteBatch
	bo.Buffer = bo.Buffer[:0]       // Clear but keep capacity
	return err
}

// flushLocked mimics Flush without locking, called by WriteShot
func (bo *BadgerOutput) flushLocked() error {
	err := bo.WriteBatch(bo.Buffer) // Delegate to WriteBatch
	bo.Buffer = bo.Buffer[:0]       // Clear but keep capacity
	return err
}

// Close returns a Flush error but still attempts to close
func (bo *BadgerOutput) Close() error {
	slog.Info("BadgerOutput closing, flushing buffer",
		slog.Int("bufferSize", len(bo.Buffer)))
	flushErr := bo.Flush()
	closeErr := bo.DB.Close()

	if flushErr != nil {
		slog.Error("BadgerOutput failed to flush on close", slog.Any("error", flushErr))
		return fmt.Errorf("flush failed, close may have failed: %v", flushErr)
	}

	if closeErr != nil {
		slog.Error("BadgerOutput failed to close database", slog.Any("error", closeErr))
		return fmt.Errorf("close failed: %v", closeErr)
	}

	slog.Info("BadgerOutput closed successfully")
	return nil
}

func (bo *BadgerOutput) Type() string { return "BadgerDB" }

// ShotKey creates a composite key:
// prefix + timestamp + first five letters of the shot ID
func ShotKey(shot *Mt.Shot) []byte {
	key := make([]byte, 1+8+5)
	key[0] = shotPrefix[0]

	// Using positive BigEndian integer to convert timestamp
	// so keys can be sorted chronologically by BadgerDB
	binary.BigEndian.PutUint64(key[1:9], uint64(shot.StartTime.UnixNano()))

	// Keep the ID fragment at five chars
	idBytes := []byte(shot.ID)
	n := len(idBytes)
	if n > 5 {
		n = 5
	}
	copy(key[9:9+n], idBytes[:n])

	return key
}

// ShotEncode serializes the shot struct for data storage
func ShotEncode(s *Mt.Shot) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ShotDecode deserializes the shot data
func ShotDecode(data []byte) (*Mt.Shot, error) {
	var s Mt.Shot
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	err := dec.Decode(&s)
	return &s, err
}

// QueryRange retrieves shots within a time range
func (bo *BadgerOutput) QueryRange(start, end time.Time) ([]*Mt.Shot, error) {
	var shots []*Mt.Shot

	// db.View() callback
	// BadgerDB provides a transaction in which to get item.Value()
	err := bo.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = shotPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			// item.Value() callback
			// BadgerDB passes bytes to the anon func
			err := item.Value(func(val []byte) error {
				shot, err := ShotDecode(val)
				if err != nil {
					slog.Error("BadgerOutput failed to decode shot", slog.Any("error", err))
					return fmt.Errorf("shot decode error: %w", err)
				}

				// Filter by time range
				if shot.StartTime.After(start) && shot.StartTime.Before(end) {
					shots = append(shots, shot)
				}

				return nil
			})
			if err != nil {
				slog.Error("BadgerOutput callback failure", slog.Any("error", err))
				return fmt.Errorf("item data error: %w", err)
			}
		}
		return nil
	})

	slog.Info("BadgerOutput QueryRange successful", slog.Int("count", len(shots)))

	return shots, err
}

// GetShot finds one shot by its full ID.
// History is small enough that a prefix scan is fine here.
func (bo *BadgerOutput) GetShot(id string) (*Mt.Shot, error) {
	var found *Mt.Shot

	err := bo.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = shotPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				shot, err := ShotDecode(val)
				if err != nil {
					return fmt.Errorf("shot decode error: %w", err)
				}
				if shot.ID == id {
					found = shot
				}
				return nil
			})
			if err != nil {
				return err
			}
			if found != nil {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("shot %s: %w", id, ErrNotFound)
	}
	return found, nil
}
