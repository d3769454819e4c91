package rotor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rotor-shift-bot/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

// routesResponse reference API envelope for the routes endpoint
type routesResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Routes  []struct {
		ID    int    `json:"id"`
		Route string `json:"route"`
	} `json:"routes"`
}

// vehiclesResponse reference API envelope for the vehicles endpoint
type vehiclesResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Vehicles []struct {
		Number      int    `json:"number"`
		BoardNumber string `json:"board_number"`
	} `json:"vehicles"`
}

// usersResponse reference API envelope for the users endpoint
type usersResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Users   []struct {
		VK   string `json:"vk"`
		Name string `json:"name"`
	} `json:"users"`
}

// Client reads routes, vehicles and the user directory from the company
// reference API.
type Client struct {
	httpClient *resty.Client
	company    string
	logger     *zap.Logger
}

// NewClient creates a reference API client for one company.
func NewClient(baseURL, company string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		company:    company,
		logger:     logger,
	}
}

// FetchRoutes returns all routes of the company.
func (c *Client) FetchRoutes(ctx context.Context) ([]models.RouteRef, error) {
	var response routesResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&response).
		Get("/api/routes/" + c.company)
	if err != nil {
		return nil, fmt.Errorf("failed to call routes API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("routes API returned HTTP %d", resp.StatusCode())
	}
	if response.Status != "ok" {
		return nil, fmt.Errorf("routes API error: %s", apiMessage(response.Message))
	}

	routes := make([]models.RouteRef, 0, len(response.Routes))
	for _, rec := range response.Routes {
		routes = append(routes, models.RouteRef{ID: rec.ID, Name: rec.Route})
	}

	c.logger.Debug("Fetched routes from reference API", zap.Int("count", len(routes)))

	return routes, nil
}

// FetchVehicles returns the selectable vehicles of the company. Records with
// a blank board number are dropped.
func (c *Client) FetchVehicles(ctx context.Context) ([]models.VehicleRef, error) {
	var response vehiclesResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&response).
		Get("/api/vehicles/" + c.company)
	if err != nil {
		return nil, fmt.Errorf("failed to call vehicles API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("vehicles API returned HTTP %d", resp.StatusCode())
	}
	if response.Status != "ok" {
		return nil, fmt.Errorf("vehicles API error: %s", apiMessage(response.Message))
	}

	vehicles := make([]models.VehicleRef, 0, len(response.Vehicles))
	for _, rec := range response.Vehicles {
		board := strings.TrimSpace(rec.BoardNumber)
		if board == "" {
			continue
		}
		vehicles = append(vehicles, models.VehicleRef{ID: rec.Number, BoardNumber: board})
	}

	c.logger.Debug("Fetched vehicles from reference API", zap.Int("count", len(vehicles)))

	return vehicles, nil
}

// FetchUsers returns the user directory as a normalized-identity → display
// name map. Entries with a blank identity or name are dropped.
func (c *Client) FetchUsers(ctx context.Context) (map[string]string, error) {
	var response usersResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&response).
		Get("/api/users/" + c.company)
	if err != nil {
		return nil, fmt.Errorf("failed to call users API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("users API returned HTTP %d", resp.StatusCode())
	}
	if response.Status != "ok" {
		return nil, fmt.Errorf("users API error: %s", apiMessage(response.Message))
	}

	directory := make(map[string]string, len(response.Users))
	for _, rec := range response.Users {
		domain := NormalizeIdentity(rec.VK)
		name := strings.TrimSpace(rec.Name)
		if domain == "" || name == "" {
			continue
		}
		directory[domain] = name
	}

	c.logger.Debug("Fetched user directory from reference API", zap.Int("count", len(directory)))

	return directory, nil
}

func apiMessage(message string) string {
	if message == "" {
		return "API error"
	}
	return message
}
