package credentials

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// slot holds one identity. Its mutex serializes every write to that
// identity; reads take the read lock and return copies.
type slot struct {
	mu      sync.RWMutex
	user    *models.User
	refresh *models.RefreshToken
}

// MemoryRepository keeps credentials in process memory.
//
// Lock order: slot.mu before indexMu. slotsMu is only held while looking a
// slot up or creating it.
type MemoryRepository struct {
	slotsMu sync.Mutex
	slots   map[string]*slot

	indexMu sync.RWMutex
	index   map[string]string // refresh token -> username
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		slots: make(map[string]*slot),
		index: make(map[string]string),
	}
}

// slot returns the slot of username, creating an empty one when create is
// set. Slots are never removed.
func (r *MemoryRepository) slot(username string, create bool) *slot {
	r.slotsMu.Lock()
	defer r.slotsMu.Unlock()

	s, ok := r.slots[username]
	if !ok && create {
		s = &slot{}
		r.slots[username] = s
	}
	return s
}

func (r *MemoryRepository) Save(_ context.Context, user *models.User) error {
	s := r.slot(user.UserName, true)

	s.mu.Lock()
	defer s.mu.Unlock()

	r.store(s, user)
	return nil
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) error {
	s := r.slot(user.UserName, true)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user != nil {
		return common.ErrorAlreadyExists
	}
	r.store(s, user)
	return nil
}

// store writes user into s and drops its refresh token. s.mu must be held.
func (r *MemoryRepository) store(s *slot, user *models.User) {
	if s.refresh != nil {
		r.indexMu.Lock()
		delete(r.index, s.refresh.Token)
		r.indexMu.Unlock()
	}
	s.user = user.Clone()
	s.refresh = nil
}

func (r *MemoryRepository) Find(_ context.Context, username string) (*models.User, error) {
	s := r.slot(username, false)
	if s == nil {
		return nil, common.ErrorNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil, common.ErrorNotFound
	}
	return s.user.Clone(), nil
}

func (r *MemoryRepository) AttachRefresh(_ context.Context, username, userID string, token *models.RefreshToken) error {
	s := r.slot(username, false)
	if s == nil {
		return common.ErrorNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil || s.user.ID != userID {
		return common.ErrorNotFound
	}
	r.replaceRefresh(s, username, token)
	return nil
}

// replaceRefresh swaps the refresh token of s and keeps the index in step.
// s.mu must be held.
func (r *MemoryRepository) replaceRefresh(s *slot, username string, token *models.RefreshToken) {
	next := token.Clone()
	next.UserName = username

	r.indexMu.Lock()
	if s.refresh != nil {
		delete(r.index, s.refresh.Token)
	}
	r.index[next.Token] = username
	r.indexMu.Unlock()

	s.refresh = next
}

func (r *MemoryRepository) CurrentRefresh(_ context.Context, username string) (*models.RefreshToken, error) {
	s := r.slot(username, false)
	if s == nil {
		return nil, common.ErrorNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.refresh == nil {
		return nil, common.ErrorNotFound
	}
	return s.refresh.Clone(), nil
}

func (r *MemoryRepository) FindRefresh(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.indexMu.RLock()
	username, ok := r.index[token]
	r.indexMu.RUnlock()
	if !ok {
		return nil, common.ErrorNotFound
	}

	// The token may have been rotated between the index lookup and here.
	current, err := r.CurrentRefresh(ctx, username)
	if err != nil || current.Token != token {
		return nil, common.ErrorNotFound
	}
	return current, nil
}

func (r *MemoryRepository) RotateRefresh(_ context.Context, username, presented string, next *models.RefreshToken) error {
	s := r.slot(username, false)
	if s == nil {
		return common.ErrInvalidRefreshToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil || s.refresh == nil || s.refresh.Token != presented {
		return common.ErrInvalidRefreshToken
	}
	r.replaceRefresh(s, username, next)
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
