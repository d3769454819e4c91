package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rotor-shift-bot/internal/models"
	"rotor-shift-bot/internal/vk"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssignmentStore is the persistence surface of the selection flow.
type AssignmentStore interface {
	Upsert(peerID, userID int64, status string, routeID *int, routeName *string, vehicleID *int, boardNumber *string) error
	Get(peerID, userID int64) (*models.Assignment, error)
	Delete(peerID, userID int64) error
	ListActive(peerID int64) ([]models.ActiveEntry, error)
}

// ReferenceData is the cached reference-data surface the flow needs.
type ReferenceData interface {
	Routes(ctx context.Context) ([]models.RouteRef, error)
	Vehicles(ctx context.Context) ([]models.VehicleRef, error)
	Directory(ctx context.Context) (map[string]string, error)
}

// IdentityResolver resolves a chat user id to their normalized identity.
type IdentityResolver interface {
	Domain(ctx context.Context, userID int64) (string, error)
}

// Sender delivers outbound chat messages with an optional keyboard.
type Sender interface {
	MessagesSend(ctx context.Context, peerID int64, text string, kb *vk.Keyboard) error
}

// Poller is the long-poll surface the run loop consumes.
type Poller interface {
	Poll(ctx context.Context) ([]vk.Event, error)
}

// flowState classifies which selections a person is still missing. It is
// derived from the stored assignment fields, never tracked separately.
type flowState int

const (
	stateNoRoute flowState = iota
	stateNoVehicle
	stateReady
)

// deriveState classifies an assignment. A nil assignment means nothing has
// been chosen yet.
func deriveState(a *models.Assignment) flowState {
	switch {
	case a == nil || a.RouteID == nil:
		return stateNoRoute
	case a.VehicleID == nil:
		return stateNoVehicle
	default:
		return stateReady
	}
}

// Bot drives the selection flow of one group chat: it interprets button
// payloads, persists assignment changes and replies with the roster plus the
// next selection keyboard.
type Bot struct {
	peerID   int64
	store    AssignmentStore
	refs     ReferenceData
	identity IdentityResolver
	sender   Sender
	logger   *zap.Logger
}

// NewBot creates the flow handler bound to a single chat.
func NewBot(
	peerID int64,
	store AssignmentStore,
	refs ReferenceData,
	identity IdentityResolver,
	sender Sender,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		peerID:   peerID,
		store:    store,
		refs:     refs,
		identity: identity,
		sender:   sender,
		logger:   logger,
	}
}

// Run consumes long-poll events until the context is cancelled. A failed
// event is logged and skipped; poll failures back off exponentially.
func (b *Bot) Run(ctx context.Context, poller Poller) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	b.logger.Info("Bot started", zap.Int64("peer_id", b.peerID))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		events, err := poller.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.logger.Error("Long poll failed",
				zap.Error(err),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			continue
		}
		backoff = time.Second

		for _, ev := range events {
			if err := b.HandleEvent(ctx, ev); err != nil {
				b.logger.Error("Failed to handle event",
					zap.Int64("user_id", ev.Object.Message.FromID),
					zap.Error(err),
				)
			}
		}
	}
}

// HandleEvent processes one inbound event. Events without a button payload,
// events from other chats and unknown or malformed actions are dropped
// without a reply.
func (b *Bot) HandleEvent(ctx context.Context, ev vk.Event) error {
	if ev.Type != vk.EventTypeMessageNew {
		return nil
	}

	msg := ev.Object.Message
	if msg.PeerID != b.peerID || msg.Payload == "" {
		return nil
	}

	var act action
	if err := json.Unmarshal([]byte(msg.Payload), &act); err != nil {
		return nil
	}

	log := b.logger.With(
		zap.String("event_id", uuid.NewString()),
		zap.Int64("user_id", msg.FromID),
		zap.String("action", act.A),
	)

	switch act.A {
	case actionCancel:
		return b.replyStatus(ctx)
	case actionRoutesPage:
		return b.replyRoutes(ctx, act.P)
	case actionVehiclesPage:
		return b.replyVehicles(ctx, act.P)
	case actionShift:
		return b.handleShift(ctx, msg.FromID, log)
	case actionRoute:
		return b.handleRoute(ctx, msg.FromID, act, log)
	case actionVehicle:
		return b.handleVehicle(ctx, msg.FromID, act, log)
	case actionStatus:
		return b.handleStatus(ctx, msg.FromID, act, log)
	default:
		log.Debug("Ignoring unknown action")
		return nil
	}
}

// handleShift starts the flow: route first, then vehicle, then on-shift.
func (b *Bot) handleShift(ctx context.Context, userID int64, log *zap.Logger) error {
	current, err := b.store.Get(b.peerID, userID)
	if err != nil {
		return fmt.Errorf("failed to load assignment: %w", err)
	}

	switch deriveState(current) {
	case stateNoRoute:
		return b.replyRoutes(ctx, 1)
	case stateNoVehicle:
		return b.replyVehicles(ctx, 1)
	}

	if err := b.store.Upsert(b.peerID, userID, models.StatusOnShift,
		current.RouteID, current.RouteName, current.VehicleID, current.BoardNumber); err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}

	log.Info("Shift started")

	return b.replyStatus(ctx)
}

// handleRoute stores the chosen route, keeping any vehicle already selected.
func (b *Bot) handleRoute(ctx context.Context, userID int64, act action, log *zap.Logger) error {
	if act.ID == 0 || act.Name == "" {
		return nil
	}

	current, err := b.store.Get(b.peerID, userID)
	if err != nil {
		return fmt.Errorf("failed to load assignment: %w", err)
	}

	var vehicleID *int
	var boardNumber *string
	if current != nil {
		vehicleID = current.VehicleID
		boardNumber = current.BoardNumber
	}

	routeID := act.ID
	routeName := act.Name
	if err := b.store.Upsert(b.peerID, userID, models.StatusOnShift,
		&routeID, &routeName, vehicleID, boardNumber); err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}

	log.Info("Route selected",
		zap.Int("route_id", routeID),
		zap.String("route", routeName),
	)

	if vehicleID == nil {
		return b.replyVehicles(ctx, 1)
	}
	return b.replyStatus(ctx)
}

// handleVehicle stores the chosen vehicle, keeping any route already
// selected. Selections commute: route-then-vehicle and vehicle-then-route
// end in the same state.
func (b *Bot) handleVehicle(ctx context.Context, userID int64, act action, log *zap.Logger) error {
	if act.ID == 0 || act.Board == "" {
		return nil
	}

	current, err := b.store.Get(b.peerID, userID)
	if err != nil {
		return fmt.Errorf("failed to load assignment: %w", err)
	}

	var routeID *int
	var routeName *string
	if current != nil {
		routeID = current.RouteID
		routeName = current.RouteName
	}

	vehicleID := act.ID
	boardNumber := act.Board
	if err := b.store.Upsert(b.peerID, userID, models.StatusOnShift,
		routeID, routeName, &vehicleID, &boardNumber); err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}

	log.Info("Vehicle selected",
		zap.Int("vehicle_id", vehicleID),
		zap.String("board", boardNumber),
	)

	if routeID == nil {
		return b.replyRoutes(ctx, 1)
	}
	return b.replyStatus(ctx)
}

// handleStatus applies a status change. Dismissal deletes the assignment
// unconditionally; every other status requires both route and vehicle.
func (b *Bot) handleStatus(ctx context.Context, userID int64, act action, log *zap.Logger) error {
	status := strings.TrimSpace(act.V)
	if status == "" {
		return nil
	}

	if status == models.StatusDismissed {
		if err := b.store.Delete(b.peerID, userID); err != nil {
			return fmt.Errorf("failed to delete assignment: %w", err)
		}
		log.Info("Assignment dismissed")
		return b.replyStatus(ctx)
	}

	current, err := b.store.Get(b.peerID, userID)
	if err != nil {
		return fmt.Errorf("failed to load assignment: %w", err)
	}

	switch deriveState(current) {
	case stateNoRoute:
		return b.replyRoutes(ctx, 1)
	case stateNoVehicle:
		return b.replyVehicles(ctx, 1)
	}

	if err := b.store.Upsert(b.peerID, userID, status,
		current.RouteID, current.RouteName, current.VehicleID, current.BoardNumber); err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}

	log.Info("Status updated", zap.String("status", status))

	return b.replyStatus(ctx)
}

// reply sends the roster summary with the given keyboard, falling back to a
// text-only send when the chat rejects keyboards.
func (b *Bot) reply(ctx context.Context, kb *vk.Keyboard) error {
	text, err := b.summary(ctx)
	if err != nil {
		return err
	}

	if err := b.sender.MessagesSend(ctx, b.peerID, text, kb); err != nil {
		if errors.Is(err, vk.ErrButtonsUnsupported) {
			return b.sender.MessagesSend(ctx, b.peerID, text, nil)
		}
		return fmt.Errorf("failed to send reply: %w", err)
	}

	return nil
}

func (b *Bot) replyStatus(ctx context.Context) error {
	return b.reply(ctx, statusKeyboard())
}

func (b *Bot) replyRoutes(ctx context.Context, page int) error {
	routes, err := b.refs.Routes(ctx)
	if err != nil {
		return fmt.Errorf("failed to build routes menu: %w", err)
	}
	return b.reply(ctx, routesKeyboard(routes, page))
}

func (b *Bot) replyVehicles(ctx context.Context, page int) error {
	vehicles, err := b.refs.Vehicles(ctx)
	if err != nil {
		return fmt.Errorf("failed to build vehicles menu: %w", err)
	}
	return b.reply(ctx, vehiclesKeyboard(vehicles, page))
}
