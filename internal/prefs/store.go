// Package prefs holds the persisted UI preferences: theme, language and
// sidebar state. The blob survives reloads so language and layout direction
// are restored on startup.
package prefs

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"tradesense-go/internal/storage"
)

// Supported languages. French is the default.
const (
	LangFrench  = "fr"
	LangArabic  = "ar"
	LangEnglish = "en"
)

// Layout directions derived from the language.
const (
	DirectionLTR = "ltr"
	DirectionRTL = "rtl"
)

// Storage is the durable key-value slice the store persists into.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// State is the persisted preference snapshot.
type State struct {
	DarkMode    bool   `json:"dark_mode"`
	Language    string `json:"language"`
	SidebarOpen bool   `json:"sidebar_open"`
}

// Direction returns the layout direction for the selected language.
func (s State) Direction() string {
	if s.Language == LangArabic {
		return DirectionRTL
	}
	return DirectionLTR
}

// Store is the observable, persisted preference container.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	logger  *zap.Logger

	state   State
	subs    map[int]func(State)
	nextSub int
}

// NewStore loads persisted preferences, falling back to the defaults
// (dark mode on, French, sidebar open) when nothing is stored yet.
func NewStore(st Storage, logger *zap.Logger) *Store {
	s := &Store{
		storage: st,
		logger:  logger,
		// Dark mode defaults on; it is a trading dashboard.
		state: State{DarkMode: true, Language: LangFrench, SidebarOpen: true},
		subs:  make(map[int]func(State)),
	}

	blob, err := st.Get(storage.KeyUIState)
	if err != nil {
		logger.Error("Failed to load UI preferences", zap.Error(err))
		return s
	}
	if blob != "" {
		var saved State
		if err := json.Unmarshal([]byte(blob), &saved); err != nil {
			logger.Warn("Discarding corrupt UI preference blob", zap.Error(err))
			return s
		}
		if !validLanguage(saved.Language) {
			saved.Language = LangFrench
		}
		s.state = saved
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to run after every state change and returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// mutate applies fn, persists the new snapshot and notifies subscribers.
func (s *Store) mutate(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	if blob, err := json.Marshal(snapshot); err == nil {
		if err := s.storage.Set(storage.KeyUIState, string(blob)); err != nil {
			s.logger.Error("Failed to persist UI preferences", zap.Error(err))
		}
	}

	for _, sub := range subs {
		sub(snapshot)
	}
}

// SetLanguage switches the UI language. Unknown codes are rejected locally.
func (s *Store) SetLanguage(lang string) error {
	if !validLanguage(lang) {
		return fmt.Errorf("unsupported language %q", lang)
	}
	s.mutate(func(st *State) { st.Language = lang })
	return nil
}

// SetDarkMode sets the theme.
func (s *Store) SetDarkMode(on bool) {
	s.mutate(func(st *State) { st.DarkMode = on })
}

// ToggleDarkMode flips the theme.
func (s *Store) ToggleDarkMode() {
	s.mutate(func(st *State) { st.DarkMode = !st.DarkMode })
}

// SetSidebarOpen sets the sidebar state.
func (s *Store) SetSidebarOpen(open bool) {
	s.mutate(func(st *State) { st.SidebarOpen = open })
}

// ToggleSidebar flips the sidebar state.
func (s *Store) ToggleSidebar() {
	s.mutate(func(st *State) { st.SidebarOpen = !st.SidebarOpen })
}

func validLanguage(lang string) bool {
	switch lang {
	case LangFrench, LangArabic, LangEnglish:
		return true
	}
	return false
}
