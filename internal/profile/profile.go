// Package profile persists the locally edited profile fields.
package profile

import (
	"context"
	"fmt"

	"github.com/barlacteo/storefront/internal/kv"
)

const (
	keyName  = "nombre"
	keyPhone = "fono"
	keyPhoto = "foto_uri"
)

type Profile struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	PhotoURI string `json:"photoUri"`
}

type Store struct {
	kv kv.Store
}

func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// Load reads the profile; missing fields come back empty, never as an
// error, so a fresh install shows a blank profile.
func (s *Store) Load(ctx context.Context) (Profile, error) {
	var p Profile
	var err error
	if p.Name, _, err = s.kv.Get(ctx, keyName); err != nil {
		return Profile{}, fmt.Errorf("profile: load: %w", err)
	}
	if p.Phone, _, err = s.kv.Get(ctx, keyPhone); err != nil {
		return Profile{}, fmt.Errorf("profile: load: %w", err)
	}
	if p.PhotoURI, _, err = s.kv.Get(ctx, keyPhoto); err != nil {
		return Profile{}, fmt.Errorf("profile: load: %w", err)
	}
	return p, nil
}

// Save writes all fields in one transaction.
func (s *Store) Save(ctx context.Context, p Profile) error {
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		tx.Set(keyName, p.Name)
		tx.Set(keyPhone, p.Phone)
		tx.Set(keyPhoto, p.PhotoURI)
		return nil
	})
	if err != nil {
		return fmt.Errorf("profile: save: %w", err)
	}
	return nil
}
