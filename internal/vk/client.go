package vk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.vk.com/method"
	apiVersion     = "5.199"
	requestTimeout = 10 * time.Second

	// VK error 912: "Chat bot feature is not available for this chat".
	errCodeButtonsUnsupported = 912
)

// ErrButtonsUnsupported is returned by MessagesSend when the target chat does
// not accept bot keyboards. Callers retry the same send without a keyboard.
var ErrButtonsUnsupported = errors.New("chat does not support bot keyboards")

type apiError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

// Client is the VK group API client.
type Client struct {
	httpClient *resty.Client
	token      string
	logger     *zap.Logger
}

// NewClient creates a VK API client. An empty baseURL selects the production
// endpoint.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout)

	return &Client{
		httpClient: client,
		token:      token,
		logger:     logger,
	}
}

// call invokes one VK API method and decodes the "response" field into out.
// VK reports application errors inside a 200 body, never via HTTP status.
func (c *Client) call(ctx context.Context, method string, params map[string]string, out interface{}) error {
	form := map[string]string{
		"access_token": c.token,
		"v":            apiVersion,
	}
	for k, v := range params {
		form[k] = v
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
		Error    *apiError       `json:"error"`
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&envelope).
		Post("/" + method)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s returned HTTP %d", method, resp.StatusCode())
	}

	if envelope.Error != nil {
		if envelope.Error.Code == errCodeButtonsUnsupported {
			return ErrButtonsUnsupported
		}
		return fmt.Errorf("%s error %d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}

	if out != nil && envelope.Response != nil {
		if err := json.Unmarshal(envelope.Response, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", method, err)
		}
	}

	return nil
}

// MessagesSend delivers a chat message with an optional keyboard. A nil
// keyboard sends plain text.
func (c *Client) MessagesSend(ctx context.Context, peerID int64, text string, kb *Keyboard) error {
	params := map[string]string{
		"peer_id":   strconv.FormatInt(peerID, 10),
		"message":   text,
		"random_id": strconv.FormatInt(int64(rand.Int31()), 10),
	}

	if kb != nil {
		encoded, err := json.Marshal(kb)
		if err != nil {
			return fmt.Errorf("failed to encode keyboard: %w", err)
		}
		params["keyboard"] = string(encoded)
	}

	return c.call(ctx, "messages.send", params, nil)
}

// UserDomain resolves a user id to their profile domain via users.get.
func (c *Client) UserDomain(ctx context.Context, userID int64) (string, error) {
	var users []struct {
		ID     int64  `json:"id"`
		Domain string `json:"domain"`
	}

	err := c.call(ctx, "users.get", map[string]string{
		"user_ids": strconv.FormatInt(userID, 10),
		"fields":   "domain",
	}, &users)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", fmt.Errorf("users.get returned no record for id %d", userID)
	}

	return strings.TrimSpace(users[0].Domain), nil
}
