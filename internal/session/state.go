// Package session holds the signed-in user, the active screen, the language
// and the translation history, persisting them through a repo.Store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/internal/model"
	"github.com/steveyiyo/signspeak/internal/repo"
)

// HistoryLimit caps the stored history; the oldest entries fall off first.
const HistoryLimit = 50

var (
	ErrEmailRequired = errors.New("email is required")
	ErrNameRequired  = errors.New("name is required to sign up")
)

type Snapshot struct {
	User     *model.User
	Mode     model.AppMode
	Language model.Language
}

type State struct {
	store repo.Store
	log   *slog.Logger
	now   func() time.Time
	newID func() string

	mu      sync.RWMutex
	user    *model.User
	mode    model.AppMode
	lang    model.Language
	history []model.HistoryEntry
}

func New(store repo.Store, log *slog.Logger) *State {
	return &State{
		store: store,
		log:   logging.OrDiscard(log).With("component", "session"),
		now:   time.Now,
		newID: uuid.NewString,
		mode:  model.ModeOnboarding,
		lang:  model.English,
	}
}

// Load restores the user and history. A stored user skips onboarding.
// Unreadable stored values are logged and treated as absent.
func (s *State) Load(ctx context.Context) error {
	var user *model.User
	if raw, ok, err := s.store.Get(ctx, repo.KeyUser); err != nil {
		return fmt.Errorf("load user: %w", err)
	} else if ok {
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.log.Warn("stored user unreadable", "err", err)
		} else {
			user = &u
		}
	}

	var history []model.HistoryEntry
	if raw, ok, err := s.store.Get(ctx, repo.KeyHistory); err != nil {
		return fmt.Errorf("load history: %w", err)
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			s.log.Warn("stored history unreadable", "err", err)
			history = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.history = history
	if user != nil {
		s.mode = model.ModeSelector
	} else {
		s.mode = model.ModeOnboarding
	}
	return nil
}

// Login signs in with an email. The display name defaults to the email's
// local part.
func (s *State) Login(ctx context.Context, name, email string) (model.User, error) {
	return s.signIn(ctx, name, email, false)
}

// Signup is Login with a mandatory name.
func (s *State) Signup(ctx context.Context, name, email string) (model.User, error) {
	return s.signIn(ctx, name, email, true)
}

func (s *State) signIn(ctx context.Context, name, email string, requireName bool) (model.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" {
		return model.User{}, ErrEmailRequired
	}
	if requireName && name == "" {
		return model.User{}, ErrNameRequired
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	u := model.User{ID: s.newID(), Name: name, Email: email}
	b, err := json.Marshal(u)
	if err != nil {
		return model.User{}, err
	}
	if err := s.store.Set(ctx, repo.KeyUser, string(b)); err != nil {
		return model.User{}, fmt.Errorf("save user: %w", err)
	}

	s.mu.Lock()
	s.user = &u
	s.mode = model.ModeSelector
	s.mu.Unlock()
	s.log.Info("signed in", "user", u.ID)
	return u, nil
}

// Logout forgets the user and returns to the selector as a guest.
func (s *State) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx, repo.KeyUser); err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	s.mu.Lock()
	s.user = nil
	s.mode = model.ModeSelector
	s.mu.Unlock()
	return nil
}

// CompleteOnboarding moves to the selector when signed in, else to auth.
func (s *State) CompleteOnboarding() model.AppMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.mode = model.ModeSelector
	} else {
		s.mode = model.ModeAuth
	}
	return s.mode
}

// SkipAuth continues as a guest.
func (s *State) SkipAuth() {
	s.SetMode(model.ModeSelector)
}

func (s *State) SetMode(m model.AppMode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

func (s *State) Mode() model.AppMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *State) SetLanguage(l model.Language) error {
	if !l.Valid() {
		return fmt.Errorf("unsupported language %q", l)
	}
	s.mu.Lock()
	s.lang = l
	s.mu.Unlock()
	return nil
}

func (s *State) Language() model.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// User returns a copy of the signed-in user, or nil for guests.
func (s *State) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// VaultNamespace is the storage namespace for custom signs: the user id, or
// the guest namespace when signed out.
func (s *State) VaultNamespace() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return repo.GuestNamespace
	}
	return s.user.ID
}

// AddLog stamps e with a fresh id and the current time, prepends it and
// persists the capped history.
func (s *State) AddLog(ctx context.Context, e model.HistoryEntry) (model.HistoryEntry, error) {
	e.ID = s.newID()
	e.Timestamp = s.now().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]model.HistoryEntry, 0, min(len(s.history)+1, HistoryLimit))
	next = append(next, e)
	next = append(next, s.history...)
	if len(next) > HistoryLimit {
		next = next[:HistoryLimit]
	}
	b, err := json.Marshal(next)
	if err != nil {
		return e, err
	}
	if err := s.store.Set(ctx, repo.KeyHistory, string(b)); err != nil {
		return e, fmt.Errorf("save history: %w", err)
	}
	s.history = next
	return e, nil
}

// History returns the log, newest first.
func (s *State) History() []model.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.HistoryEntry(nil), s.history...)
}

func (s *State) Snapshot() Snapshot {
	return Snapshot{User: s.User(), Mode: s.Mode(), Language: s.Language()}
}
