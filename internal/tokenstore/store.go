package tokenstore

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zamaforge/zforge/internal/fileutil"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// fileVersion is the on-disk format version.
const fileVersion = 1

// LogWriter is the logging surface the store needs.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// listFile is the JSON document written per owner address.
type listFile struct {
	Version   int       `json:"version"`
	Owner     string    `json:"owner"`
	UpdatedAt time.Time `json:"updated_at"`
	Tokens    []Token   `json:"tokens"`
}

// Options configures a Store.
type Options struct {
	// AutoManaged tokens are merged into every list and never persisted.
	AutoManaged []Token
	Logger      LogWriter
}

// Store is the token list of one wallet address.
type Store struct {
	mu     sync.RWMutex
	path   string
	owner  common.Address
	auto   []Token
	tokens []Token // user tokens only
	logger LogWriter
}

// FilePath returns the list file for owner under dir.
func FilePath(dir string, owner common.Address) string {
	return filepath.Join(dir, "tokens-"+strings.ToLower(owner.Hex())+".json")
}

// Open loads the token list of owner from dir. A missing file yields an
// empty list. A corrupt file is moved aside and the list starts empty.
func Open(dir string, owner common.Address, opts *Options) (*Store, error) {
	if dir == "" {
		return nil, fileutil.ErrEmptyPath
	}
	if owner == (common.Address{}) {
		return nil, zferr.WithDetails(zferr.ErrInvalidAddress, map[string]string{"field": "owner"})
	}
	if opts == nil {
		opts = &Options{}
	}

	s := &Store{
		path:   FilePath(dir, owner),
		owner:  owner,
		auto:   append([]Token(nil), opts.AutoManaged...),
		logger: opts.Logger,
	}
	if s.logger == nil {
		s.logger = nopLogger{}
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	var f listFile
	found, err := fileutil.ReadJSON(s.path, &f)
	if !found && err == nil {
		return nil
	}
	if err != nil {
		if !found {
			return err
		}
		dest, qErr := fileutil.Quarantine(s.path, fmt.Sprintf("%d", time.Now().UnixNano()))
		if qErr != nil {
			return fmt.Errorf("quarantining token list: %w", qErr)
		}
		s.logger.Error("token list corrupt, moved to %s: %v", dest, err)
		return nil
	}

	for _, t := range f.Tokens {
		if t.IsAutoManaged() || s.isAutoAddress(t.Contract) {
			continue
		}
		s.tokens = append(s.tokens, t)
	}
	s.logger.Debug("loaded %d tokens for %s", len(s.tokens), s.owner.Hex())
	return nil
}

func (s *Store) save() error {
	f := listFile{
		Version:   fileVersion,
		Owner:     s.owner.Hex(),
		UpdatedAt: time.Now().UTC(),
		Tokens:    s.tokens,
	}
	if f.Tokens == nil {
		f.Tokens = []Token{}
	}
	if err := fileutil.WriteJSON(s.path, f, 0o600); err != nil {
		return fmt.Errorf("saving token list: %w", err)
	}
	return nil
}

func (s *Store) isAutoAddress(addr common.Address) bool {
	for _, a := range s.auto {
		if a.Contract == addr {
			return true
		}
	}
	return false
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Owner returns the wallet address the list belongs to.
func (s *Store) Owner() common.Address {
	return s.owner
}

// List returns auto-managed tokens followed by the user's tokens.
func (s *Store) List() []Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Token, 0, len(s.auto)+len(s.tokens))
	out = append(out, s.auto...)
	out = append(out, s.tokens...)
	return out
}

// ByType returns the tokens of the given type.
func (s *Store) ByType(typ Type) []Token {
	var out []Token
	for _, t := range s.List() {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out
}

// Add appends t to the list. Adding an auto-managed contract is a no-op.
func (s *Store) Add(t Token) (Token, error) {
	if err := t.Validate(); err != nil {
		return Token{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isAutoAddress(t.Contract) {
		for _, a := range s.auto {
			if a.Contract == t.Contract {
				return a, nil
			}
		}
	}
	for _, existing := range s.tokens {
		if existing.Contract == t.Contract {
			return Token{}, zferr.WithDetails(zferr.ErrTokenExists, map[string]string{
				"symbol":  existing.Symbol,
				"address": existing.Contract.Hex(),
			})
		}
	}
	if t.ID == "" || t.IsAutoManaged() {
		t.ID = NewToken("", "", 0, t.Type, t.Contract).ID
	}

	s.tokens = append(s.tokens, t)
	if err := s.save(); err != nil {
		s.tokens = s.tokens[:len(s.tokens)-1]
		return Token{}, err
	}
	s.logger.Debug("added token %s (%s)", t.Symbol, t.Contract.Hex())
	return t, nil
}

// Update applies fn to the token with id and persists the result.
// Auto-managed tokens are updated in memory only.
func (s *Store) Update(id string, fn func(*Token)) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.auto {
		if s.auto[i].ID == id {
			fn(&s.auto[i])
			s.auto[i].ID = id
			return s.auto[i], nil
		}
	}
	for i := range s.tokens {
		if s.tokens[i].ID != id {
			continue
		}
		prev := s.tokens[i]
		fn(&s.tokens[i])
		s.tokens[i].ID = id
		if err := s.save(); err != nil {
			s.tokens[i] = prev
			return Token{}, err
		}
		return s.tokens[i], nil
	}
	return Token{}, zferr.WithDetails(zferr.ErrTokenNotFound, map[string]string{"id": id})
}

// Remove deletes the token with id. Auto-managed tokens cannot be removed.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.auto {
		if a.ID == id {
			return zferr.WithSuggestion(
				zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"id": id}),
				"The faucet token is managed automatically and cannot be removed",
			)
		}
	}
	for i := range s.tokens {
		if s.tokens[i].ID != id {
			continue
		}
		prev := s.tokens
		s.tokens = append(append([]Token(nil), s.tokens[:i]...), s.tokens[i+1:]...)
		if err := s.save(); err != nil {
			s.tokens = prev
			return err
		}
		return nil
	}
	return zferr.WithDetails(zferr.ErrTokenNotFound, map[string]string{"id": id})
}

// Clear drops every user token and deletes the backing file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting token list: %w", err)
	}
	return nil
}

// DecryptedBalance returns the cached decrypted balance of contract and the
// handle it was decrypted from.
func (s *Store) DecryptedBalance(contract common.Address) (*big.Int, string, bool) {
	t, ok := s.byAddress(contract)
	if !ok {
		return nil, "", false
	}
	v, ok := t.Decrypted()
	if !ok {
		return nil, "", false
	}
	return v, t.DecryptedHandle, true
}

// SetDecryptedBalance caches raw as the decrypted balance of contract at
// handle. A nil raw clears both.
func (s *Store) SetDecryptedBalance(contract common.Address, raw *big.Int, handle string) error {
	t, ok := s.byAddress(contract)
	if !ok {
		return zferr.WithDetails(zferr.ErrTokenNotFound, map[string]string{"address": contract.Hex()})
	}
	_, err := s.Update(t.ID, func(t *Token) {
		if raw == nil {
			t.DecryptedBalance = ""
			t.DecryptedHandle = ""
			return
		}
		t.DecryptedBalance = raw.String()
		t.DecryptedHandle = strings.ToLower(handle)
	})
	return err
}

func (s *Store) byAddress(addr common.Address) (Token, bool) {
	for _, t := range s.List() {
		if t.Contract == addr {
			return t, true
		}
	}
	return Token{}, false
}
