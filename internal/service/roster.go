package service

import (
	"context"
	"fmt"
	"strings"

	"rotor-shift-bot/internal/models"

	"go.uber.org/zap"
)

const (
	summaryEmpty  = "❌ Активных сотрудников сейчас нет."
	summaryHeader = "⚡ Активные сотрудники:"
	noRouteLabel  = "маршрут не выбран"
	noBoardLabel  = "борт не выбран"
)

func statusEmoji(status string) string {
	switch status {
	case models.StatusOnShift:
		return "🟩"
	case models.StatusLunch:
		return "💤"
	case models.StatusDeparted:
		return "🚫"
	case models.StatusDismissed:
		return "⚫"
	default:
		return "🔵"
	}
}

// summary renders the active roster of the chat, most recent change first.
// Directory failures degrade to raw identities so the roster still renders;
// identity lookup failures abort the render.
func (b *Bot) summary(ctx context.Context) (string, error) {
	entries, err := b.store.ListActive(b.peerID)
	if err != nil {
		return "", fmt.Errorf("failed to list active assignments: %w", err)
	}
	if len(entries) == 0 {
		return summaryEmpty, nil
	}

	directory, err := b.refs.Directory(ctx)
	if err != nil {
		b.logger.Warn("Directory unavailable, rendering raw identities", zap.Error(err))
		directory = map[string]string{}
	}

	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, summaryHeader)
	for _, e := range entries {
		name, err := b.resolveName(ctx, directory, e.UserID)
		if err != nil {
			return "", err
		}

		route := noRouteLabel
		if e.RouteName != nil && *e.RouteName != "" {
			route = *e.RouteName
		}
		board := noBoardLabel
		if e.BoardNumber != nil && *e.BoardNumber != "" {
			board = *e.BoardNumber
		}

		lines = append(lines, fmt.Sprintf("%s %s (%s) | %s", statusEmoji(e.Status), route, board, name))
	}

	return strings.Join(lines, "\n"), nil
}

// resolveName maps a user id to a display name: directory entry by identity,
// then the raw identity, then a synthesized id token.
func (b *Bot) resolveName(ctx context.Context, directory map[string]string, userID int64) (string, error) {
	domain, err := b.identity.Domain(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve identity for user %d: %w", userID, err)
	}

	if domain == "" {
		return fmt.Sprintf("id%d", userID), nil
	}
	if name, ok := directory[domain]; ok {
		return name, nil
	}
	return domain, nil
}
