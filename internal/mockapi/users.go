package mockapi

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errDuplicateEmail    = errors.New("email already registered")
	errDuplicateUsername = errors.New("username already taken")
	errInvalidToken      = errors.New("invalid or expired token")
)

type user struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Company      *string `json:"company,omitempty"`
	IsVerified   bool    `json:"is_verified"`
	CreatedAt    string  `json:"created_at"`
	passwordHash []byte
	// tokenVersion invalidates outstanding access tokens when bumped.
	tokenVersion int
}

type userStore struct {
	mu      sync.RWMutex
	cost    int
	nextID  int64
	byID    map[int64]*user
	reset   map[string]int64
	verify  map[string]int64
	outbox  map[string]string // email -> last token mailed
	refresh map[string]int64
	dummy   []byte
}

func newUserStore(cost int) *userStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-password"), cost)
	return &userStore{
		cost:    cost,
		dummy:   dummy,
		byID:    make(map[int64]*user),
		reset:   make(map[string]int64),
		verify:  make(map[string]int64),
		outbox:  make(map[string]string),
		refresh: make(map[string]int64),
	}
}

func (s *userStore) hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), s.cost)
}

// create adds a user and returns a copy plus its email verification token.
func (s *userStore) create(username, email, password string, verified bool) (user, string, error) {
	hash, err := s.hash(password)
	if err != nil {
		return user{}, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(email) != nil {
		return user{}, "", errDuplicateEmail
	}
	if s.findLocked(username) != nil {
		return user{}, "", errDuplicateUsername
	}

	s.nextID++
	u := &user{
		ID:           s.nextID,
		Username:     username,
		Email:        email,
		IsVerified:   verified,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		passwordHash: hash,
	}
	s.byID[u.ID] = u

	token := ""
	if !verified {
		token = uuid.NewString()
		s.verify[token] = u.ID
		s.outbox[strings.ToLower(email)] = token
	}
	return *u, token, nil
}

// findLocked matches identifier against emails and usernames, ignoring case.
func (s *userStore) findLocked(identifier string) *user {
	for _, u := range s.byID {
		if strings.EqualFold(u.Email, identifier) || strings.EqualFold(u.Username, identifier) {
			return u
		}
	}
	return nil
}

// authenticate returns the user when password matches.
func (s *userStore) authenticate(identifier, password string) (user, bool) {
	s.mu.RLock()
	u := s.findLocked(identifier)
	var snapshot user
	if u != nil {
		snapshot = *u
	}
	s.mu.RUnlock()

	if u == nil {
		// Keep timing similar for unknown accounts.
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return user{}, false
	}
	if err := bcrypt.CompareHashAndPassword(snapshot.passwordHash, []byte(password)); err != nil {
		return user{}, false
	}
	return snapshot, true
}

func (s *userStore) get(id int64) (user, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return user{}, false
	}
	return *u, true
}

func (s *userStore) issueRefresh(id int64) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.refresh[token] = id
	s.mu.Unlock()
	return token
}

// requestReset mails a reset token when the email is known. It reports
// nothing to the caller either way.
func (s *userStore) requestReset(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findLocked(email)
	if u == nil || !strings.EqualFold(u.Email, email) {
		return
	}
	token := uuid.NewString()
	s.reset[token] = u.ID
	s.outbox[strings.ToLower(u.Email)] = token
}

func (s *userStore) resetPassword(token, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.reset[token]
	if !ok {
		return errInvalidToken
	}
	delete(s.reset, token)
	u := s.byID[id]
	u.passwordHash = hash
	u.tokenVersion++
	return nil
}

func (s *userStore) verifyEmail(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.verify[token]
	if !ok {
		return errInvalidToken
	}
	delete(s.verify, token)
	s.byID[id].IsVerified = true
	return nil
}

type profileUpdate struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Company   *string `json:"company"`
}

func (s *userStore) update(id int64, p profileUpdate) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return user{}, errInvalidToken
	}
	if p.Email != nil {
		if other := s.findLocked(*p.Email); other != nil && other.ID != id {
			return user{}, errDuplicateEmail
		}
	}
	if p.Username != nil {
		if other := s.findLocked(*p.Username); other != nil && other.ID != id {
			return user{}, errDuplicateUsername
		}
	}

	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil && !strings.EqualFold(*p.Email, u.Email) {
		u.Email = *p.Email
		u.IsVerified = false
	}
	if p.FirstName != nil {
		u.FirstName = p.FirstName
	}
	if p.LastName != nil {
		u.LastName = p.LastName
	}
	if p.Company != nil {
		u.Company = p.Company
	}
	return *u, nil
}

func (s *userStore) changePassword(id int64, current, next string) (bool, error) {
	s.mu.RLock()
	u, ok := s.byID[id]
	var hash []byte
	if ok {
		hash = u.passwordHash
	}
	s.mu.RUnlock()
	if !ok {
		return false, errInvalidToken
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(current)); err != nil {
		return false, nil
	}
	newHash, err := s.hash(next)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	u.passwordHash = newHash
	s.mu.Unlock()
	return true, nil
}

func (s *userStore) version(id int64) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return 0, false
	}
	return u.tokenVersion, true
}

func (s *userStore) revoke(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findLocked(email)
	if u == nil {
		return false
	}
	u.tokenVersion++
	return true
}

func (s *userStore) mailed(email string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.outbox[strings.ToLower(email)]
	return token, ok
}
