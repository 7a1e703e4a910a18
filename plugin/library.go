package plugin

/*

	Library storage on top of the BadgerOutput instance.

	Shots stream in through the OutputAdapter; profiles and settings
	are point lookups living in their own key namespaces of the same
	database, so one data directory holds everything.

*/

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	Mt "github.com/meticai/meticd/types"
)

// SaveProfile stores an imported or generated profile by ID
func (bo *BadgerOutput) SaveProfile(p *Mt.Profile) error {
	if p.ID == "" {
		return errors.New("profile has no ID")
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("profile encode error: %w", err)
	}

	key := append(append([]byte{}, profilePrefix...), []byte(p.ID)...)
	err := bo.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf.Bytes())
	})
	if err != nil {
		slog.Error("BadgerOutput failed to save profile",
			slog.Any("error", err),
			slog.String("profile", p.ID))
		return fmt.Errorf("profile save error: %w", err)
	}

	slog.Info("Profile saved", slog.String("ID", p.ID), slog.String("Name", p.Name))
	return nil
}

// GetProfile fetches one stored profile by ID
func (bo *BadgerOutput) GetProfile(id string) (*Mt.Profile, error) {
	var p Mt.Profile

	key := append(append([]byte{}, profilePrefix...), []byte(id)...)
	err := bo.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewBuffer(val)).Decode(&p)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("profile get error: %w", err)
	}
	return &p, nil
}

// ListProfiles returns every stored profile
func (bo *BadgerOutput) ListProfiles() ([]*Mt.Profile, error) {
	var profiles []*Mt.Profile

	err := bo.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = profilePrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p Mt.Profile
				if err := gob.NewDecoder(bytes.NewBuffer(val)).Decode(&p); err != nil {
					slog.Error("BadgerOutput failed to decode profile", slog.Any("error", err))
					return fmt.Errorf("profile decode error: %w", err)
				}
				profiles = append(profiles, &p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return profiles, err
}

// DeleteProfile drops a stored profile, missing IDs are not an error
func (bo *BadgerOutput) DeleteProfile(id string) error {
	key := append(append([]byte{}, profilePrefix...), []byte(id)...)
	return bo.DB.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// SaveSettings persists the single settings record
func (bo *BadgerOutput) SaveSettings(s Mt.Settings) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("settings encode error: %w", err)
	}

	err := bo.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(settingsKey, buf.Bytes())
	})
	if err != nil {
		slog.Error("BadgerOutput failed to save settings", slog.Any("error", err))
		return fmt.Errorf("settings save error: %w", err)
	}
	return nil
}

// LoadSettings reads the settings record. A fresh database has none,
// which surfaces as ErrNotFound so the caller can apply defaults.
func (bo *BadgerOutput) LoadSettings() (Mt.Settings, error) {
	var s Mt.Settings

	err := bo.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(settingsKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewBuffer(val)).Decode(&s)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return s, fmt.Errorf("settings: %w", ErrNotFound)
	}
	return s, err
}
