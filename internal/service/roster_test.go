package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rotor-shift-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestSummary_EmptyRoster(t *testing.T) {
	bot, _, _, _ := newTestBot()

	text, err := bot.summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "❌ Активных сотрудников сейчас нет.", text)
}

func TestSummary_LineFormat(t *testing.T) {
	bot, store, _, _ := newTestBot()
	require.NoError(t, store.Upsert(testPeerID, 101, models.StatusOnShift,
		intPtr(5), strPtr("Route A"), intPtr(9), strPtr("A123BC")))

	text, err := bot.summary(context.Background())

	require.NoError(t, err)
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "⚡ Активные сотрудники:", lines[0])
	assert.Equal(t, "🟩 Route A (A123BC) | Иванов И.", lines[1])
}

func TestSummary_StatusEmoji(t *testing.T) {
	tests := []struct {
		status string
		emoji  string
	}{
		{models.StatusOnShift, "🟩"},
		{models.StatusLunch, "💤"},
		{models.StatusDeparted, "🚫"},
		{models.StatusDismissed, "⚫"},
		{"что-то новое", "🔵"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.emoji, statusEmoji(tt.status))
		})
	}
}

func TestSummary_PlaceholdersForMissingSelections(t *testing.T) {
	bot, store, _, _ := newTestBot()
	require.NoError(t, store.Upsert(testPeerID, 101, models.StatusOnShift, nil, nil, nil, nil))

	text, err := bot.summary(context.Background())

	require.NoError(t, err)
	assert.Contains(t, text, "маршрут не выбран")
	assert.Contains(t, text, "борт не выбран")
}

func TestSummary_MostRecentFirst(t *testing.T) {
	bot, store, _, _ := newTestBot()
	require.NoError(t, store.Upsert(testPeerID, 101, models.StatusOnShift,
		intPtr(5), strPtr("Route A"), intPtr(9), strPtr("A123BC")))
	require.NoError(t, store.Upsert(testPeerID, 102, models.StatusLunch,
		intPtr(6), strPtr("Route B"), intPtr(10), strPtr("B456DE")))

	text, err := bot.summary(context.Background())

	require.NoError(t, err)
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Route B")
	assert.Contains(t, lines[2], "Route A")
}

func TestSummary_ExcludesDismissed(t *testing.T) {
	bot, store, _, _ := newTestBot()
	require.NoError(t, store.Upsert(testPeerID, 101, models.StatusDismissed,
		intPtr(5), strPtr("Route A"), intPtr(9), strPtr("A123BC")))

	text, err := bot.summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, summaryEmpty, text)
}

func TestResolveName_FallsBackToIdentity(t *testing.T) {
	bot, store, _, _ := newTestBot()
	// user 102 has an identity but no directory entry
	require.NoError(t, store.Upsert(testPeerID, 102, models.StatusOnShift,
		intPtr(5), strPtr("Route A"), intPtr(9), strPtr("A123BC")))

	text, err := bot.summary(context.Background())

	require.NoError(t, err)
	assert.Contains(t, text, "petrov")
}

func TestResolveName_SynthesizesIDToken(t *testing.T) {
	bot, store, _, _ := newTestBot()
	// user 103 resolves to an empty identity
	require.NoError(t, store.Upsert(testPeerID, 103, models.StatusOnShift,
		intPtr(5), strPtr("Route A"), intPtr(9), strPtr("A123BC")))

	text, err := bot.summary(context.Background())

	require.NoError(t, err)
	assert.Contains(t, text, "id103")
}

func TestSummary_DirectoryFailureDegradesToIdentity(t *testing.T) {
	bot, store, refs, _ := newTestBot()
	refs.directoryErr = errors.New("api unavailable")
	require.NoError(t, store.Upsert(testPeerID, 101, models.StatusOnShift,
		intPtr(5), strPtr("Route A"), intPtr(9), strPtr("A123BC")))

	text, err := bot.summary(context.Background())

	require.NoError(t, err)
	assert.Contains(t, text, "ivanov")
	assert.NotContains(t, text, "Иванов И.")
}

func TestSummary_IdentityFailureAborts(t *testing.T) {
	bot, store, _, _ := newTestBot()
	bot.identity = &fakeIdentity{err: errors.New("vk down")}
	require.NoError(t, store.Upsert(testPeerID, 101, models.StatusOnShift,
		intPtr(5), strPtr("Route A"), intPtr(9), strPtr("A123BC")))

	_, err := bot.summary(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve identity")
}

func TestSummary_ListFailurePropagates(t *testing.T) {
	bot, store, _, _ := newTestBot()
	store.listErr = errors.New("db down")

	_, err := bot.summary(context.Background())

	require.Error(t, err)
}
