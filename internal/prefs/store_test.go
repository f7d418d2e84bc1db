package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"tradesense-go/internal/storage"
)

func setupStorage(t *testing.T) *storage.Store {
	t.Helper()
	st, err := storage.Open("file::memory:")
	assert.NoError(t, err)
	return st
}

func TestDefaults(t *testing.T) {
	store := NewStore(setupStorage(t), zap.NewNop())

	state := store.State()
	assert.True(t, state.DarkMode)
	assert.Equal(t, LangFrench, state.Language)
	assert.True(t, state.SidebarOpen)
	assert.Equal(t, DirectionLTR, state.Direction())
}

func TestLanguageRoundTrip(t *testing.T) {
	st := setupStorage(t)

	store := NewStore(st, zap.NewNop())
	assert.NoError(t, store.SetLanguage(LangArabic))
	assert.Equal(t, DirectionRTL, store.State().Direction())

	// A reload restores the language and the right-to-left direction.
	reloaded := NewStore(st, zap.NewNop())
	state := reloaded.State()
	assert.Equal(t, LangArabic, state.Language)
	assert.Equal(t, DirectionRTL, state.Direction())
}

func TestSetLanguage_Unsupported(t *testing.T) {
	store := NewStore(setupStorage(t), zap.NewNop())

	err := store.SetLanguage("de")

	assert.Error(t, err)
	assert.Equal(t, LangFrench, store.State().Language)
}

func TestDarkModePersists(t *testing.T) {
	st := setupStorage(t)

	store := NewStore(st, zap.NewNop())
	store.ToggleDarkMode()
	assert.False(t, store.State().DarkMode)

	reloaded := NewStore(st, zap.NewNop())
	assert.False(t, reloaded.State().DarkMode)
}

func TestCorruptBlobFallsBackToDefaults(t *testing.T) {
	st := setupStorage(t)
	assert.NoError(t, st.Set(storage.KeyUIState, "{not-json"))

	store := NewStore(st, zap.NewNop())

	state := store.State()
	assert.True(t, state.DarkMode)
	assert.Equal(t, LangFrench, state.Language)
}

func TestSubscribeNotifies(t *testing.T) {
	store := NewStore(setupStorage(t), zap.NewNop())

	var got []State
	unsubscribe := store.Subscribe(func(s State) { got = append(got, s) })

	store.SetSidebarOpen(false)
	assert.Len(t, got, 1)
	assert.False(t, got[0].SidebarOpen)

	unsubscribe()
	store.ToggleSidebar()
	assert.Len(t, got, 1)
}
