// Package accounts keeps the locally registered accounts and the active
// session in the key-value store. The phone number is the identity key;
// callers fall back to "guest" as the cart scoping id when no session
// exists.
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/barlacteo/storefront/internal/kv"
)

const (
	keyAccounts = "accounts"
	keyCurrent  = "current_phone"

	// GuestID scopes cart storage when nobody is logged in.
	GuestID = "guest"
)

var (
	ErrInvalidPhone = errors.New("accounts: invalid phone")
	ErrInvalidName  = errors.New("accounts: invalid name")
	ErrPhoneTaken   = errors.New("accounts: phone already registered")
	ErrNotFound     = errors.New("accounts: account not found")
)

// Chilean mobile format, as the upstream services expect.
var phoneRe = regexp.MustCompile(`^\+569\d{8}$`)

func ValidName(v string) bool  { return len(strings.TrimSpace(v)) >= 3 }
func ValidPhone(v string) bool { return phoneRe.MatchString(v) }

type Account struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Repository struct {
	kv kv.Store
}

func NewRepository(s kv.Store) *Repository {
	return &Repository{kv: s}
}

// Register adds a new account and makes it the current session. A phone
// that is already registered is rejected.
func (r *Repository) Register(ctx context.Context, name, phone string) error {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	if !ValidPhone(phone) {
		return ErrInvalidPhone
	}
	if !ValidName(name) {
		return ErrInvalidName
	}

	return r.kv.Update(ctx, func(tx kv.Tx) error {
		accs := readAccounts(tx)
		for _, a := range accs {
			if a.Phone == phone {
				return ErrPhoneTaken
			}
		}
		accs = append(accs, Account{Name: name, Phone: phone})
		if err := writeAccounts(tx, accs); err != nil {
			return err
		}
		tx.Set(keyCurrent, phone)
		return nil
	})
}

// Login matches an existing account by phone and makes it current.
func (r *Repository) Login(ctx context.Context, name, phone string) error {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)

	accs, err := r.Accounts(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, a := range accs {
		if a.Phone == phone {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}
	return r.kv.Update(ctx, func(tx kv.Tx) error {
		tx.Set(keyCurrent, phone)
		return nil
	})
}

// Logout drops the current session; registered accounts are kept.
func (r *Repository) Logout(ctx context.Context) error {
	return r.kv.Update(ctx, func(tx kv.Tx) error {
		tx.Delete(keyCurrent)
		return nil
	})
}

// Current returns the active account, ok=false when logged out.
func (r *Repository) Current(ctx context.Context) (Account, bool, error) {
	phone, ok, err := r.kv.Get(ctx, keyCurrent)
	if err != nil || !ok {
		return Account{}, false, err
	}
	accs, err := r.Accounts(ctx)
	if err != nil {
		return Account{}, false, err
	}
	for _, a := range accs {
		if a.Phone == phone {
			return a, true, nil
		}
	}
	return Account{}, false, nil
}

// Accounts lists every registered account.
func (r *Repository) Accounts(ctx context.Context) ([]Account, error) {
	raw, ok, err := r.kv.Get(ctx, keyAccounts)
	if err != nil {
		return nil, fmt.Errorf("accounts: read: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var accs []Account
	if err := json.Unmarshal([]byte(raw), &accs); err != nil {
		// Corrupt registry reads as empty, mirroring the cart store.
		return nil, nil
	}
	return accs, nil
}

// UpsertAndSetCurrent rewrites the current account in place. When the
// phone changed, the entry under the previous phone is dropped so the
// registry keeps one entry per identity.
func (r *Repository) UpsertAndSetCurrent(ctx context.Context, name, phone string) error {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	if !ValidPhone(phone) {
		return ErrInvalidPhone
	}
	if !ValidName(name) {
		return ErrInvalidName
	}

	return r.kv.Update(ctx, func(tx kv.Tx) error {
		accs := readAccounts(tx)
		prev, _ := tx.Get(keyCurrent)

		out := make([]Account, 0, len(accs)+1)
		for _, a := range accs {
			if a.Phone == phone {
				continue
			}
			if prev != "" && prev != phone && a.Phone == prev {
				continue
			}
			out = append(out, a)
		}
		out = append(out, Account{Name: name, Phone: phone})

		if err := writeAccounts(tx, out); err != nil {
			return err
		}
		tx.Set(keyCurrent, phone)
		return nil
	})
}

func readAccounts(tx kv.Tx) []Account {
	raw, ok := tx.Get(keyAccounts)
	if !ok {
		return nil
	}
	var accs []Account
	if err := json.Unmarshal([]byte(raw), &accs); err != nil {
		return nil
	}
	return accs
}

func writeAccounts(tx kv.Tx, accs []Account) error {
	b, err := json.Marshal(accs)
	if err != nil {
		return fmt.Errorf("accounts: encode: %w", err)
	}
	tx.Set(keyAccounts, string(b))
	return nil
}
