package vk

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	// EventTypeMessageNew marks an inbound chat message event.
	EventTypeMessageNew = "message_new"

	longPollWait = 25 // seconds, per Bots Long Poll docs
)

// Event is one update from the Bots Long Poll API.
type Event struct {
	Type   string `json:"type"`
	Object struct {
		Message Message `json:"message"`
	} `json:"object"`
}

// Message is the inbound chat message. Payload carries the pressed button's
// JSON descriptor and is empty for plain text messages.
type Message struct {
	PeerID  int64  `json:"peer_id"`
	FromID  int64  `json:"from_id"`
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

type longPollServer struct {
	Key    string `json:"key"`
	Server string `json:"server"`
	TS     string `json:"ts"`
}

// LongPoller consumes group events from the VK Bots Long Poll server.
type LongPoller struct {
	client  *Client
	groupID int
	logger  *zap.Logger

	// separate HTTP client: poll requests go to the session server URL and
	// hold the connection for the full wait window
	httpClient *resty.Client
	server     longPollServer
}

// NewLongPoller creates a long poller for the given group.
func NewLongPoller(client *Client, groupID int, logger *zap.Logger) *LongPoller {
	httpClient := resty.New().
		SetTimeout(time.Duration(longPollWait+10) * time.Second)

	return &LongPoller{
		client:     client,
		groupID:    groupID,
		logger:     logger,
		httpClient: httpClient,
	}
}

func (p *LongPoller) connect(ctx context.Context) error {
	var server longPollServer
	err := p.client.call(ctx, "groups.getLongPollServer", map[string]string{
		"group_id": strconv.Itoa(p.groupID),
	}, &server)
	if err != nil {
		return fmt.Errorf("failed to get long poll server: %w", err)
	}

	p.server = server
	p.logger.Info("Long poll session established", zap.String("server", server.Server))

	return nil
}

// Poll blocks for up to the long-poll wait window and returns the next batch
// of events. Expired sessions are reported as errors and reconnected on the
// following call.
func (p *LongPoller) Poll(ctx context.Context) ([]Event, error) {
	if p.server.Server == "" {
		if err := p.connect(ctx); err != nil {
			return nil, err
		}
	}

	var result struct {
		TS      string  `json:"ts"`
		Updates []Event `json:"updates"`
		Failed  int     `json:"failed"`
	}

	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"act":  "a_check",
			"key":  p.server.Key,
			"ts":   p.server.TS,
			"wait": strconv.Itoa(longPollWait),
		}).
		SetResult(&result).
		Get(p.server.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to poll events: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("long poll returned HTTP %d", resp.StatusCode())
	}

	switch result.Failed {
	case 0:
		p.server.TS = result.TS
		return result.Updates, nil
	case 1:
		// History is out of date, only the ts needs to catch up.
		p.server.TS = result.TS
		return nil, nil
	default:
		p.server = longPollServer{}
		return nil, fmt.Errorf("long poll session expired (failed=%d)", result.Failed)
	}
}
