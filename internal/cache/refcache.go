package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rotor-shift-bot/internal/models"

	"go.uber.org/zap"
)

const (
	routesTTL    = 300 * time.Second
	vehiclesTTL  = 300 * time.Second
	directoryTTL = 300 * time.Second
)

// Fetcher is the slice of the reference API the cache needs.
type Fetcher interface {
	FetchRoutes(ctx context.Context) ([]models.RouteRef, error)
	FetchVehicles(ctx context.Context) ([]models.VehicleRef, error)
	FetchUsers(ctx context.Context) (map[string]string, error)
}

// RefCache fronts the reference API with TTL-bounded snapshots of routes,
// vehicles and the user directory. Each snapshot is replaced whole on refresh,
// so readers always see either the fully old or the fully new data. Returned
// values are shared snapshots and must not be mutated by callers.
type RefCache struct {
	api    Fetcher
	logger *zap.Logger
	now    func() time.Time

	mu          sync.RWMutex
	routesAt    time.Time
	routes      []models.RouteRef
	vehiclesAt  time.Time
	vehicles    []models.VehicleRef
	directoryAt time.Time
	directory   map[string]string
}

// NewRefCache creates a reference data cache over the given API client.
func NewRefCache(api Fetcher, logger *zap.Logger) *RefCache {
	return &RefCache{
		api:    api,
		logger: logger,
		now:    time.Now,
	}
}

// Routes returns the cached route list, refreshing it from the reference API
// when the snapshot is empty or older than the TTL. Fetch errors propagate to
// the caller.
func (c *RefCache) Routes(ctx context.Context) ([]models.RouteRef, error) {
	c.mu.RLock()
	if len(c.routes) > 0 && c.now().Sub(c.routesAt) < routesTTL {
		routes := c.routes
		c.mu.RUnlock()
		return routes, nil
	}
	c.mu.RUnlock()

	routes, err := c.api.FetchRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh routes cache: %w", err)
	}

	c.mu.Lock()
	c.routes = routes
	c.routesAt = c.now()
	c.mu.Unlock()

	c.logger.Debug("Routes cache refreshed", zap.Int("count", len(routes)))

	return routes, nil
}

// Vehicles returns the cached vehicle list, refreshing on expiry the same way
// as Routes.
func (c *RefCache) Vehicles(ctx context.Context) ([]models.VehicleRef, error) {
	c.mu.RLock()
	if len(c.vehicles) > 0 && c.now().Sub(c.vehiclesAt) < vehiclesTTL {
		vehicles := c.vehicles
		c.mu.RUnlock()
		return vehicles, nil
	}
	c.mu.RUnlock()

	vehicles, err := c.api.FetchVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh vehicles cache: %w", err)
	}

	c.mu.Lock()
	c.vehicles = vehicles
	c.vehiclesAt = c.now()
	c.mu.Unlock()

	c.logger.Debug("Vehicles cache refreshed", zap.Int("count", len(vehicles)))

	return vehicles, nil
}

// Directory returns the cached identity → display name map, refreshing on
// expiry the same way as Routes.
func (c *RefCache) Directory(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	if len(c.directory) > 0 && c.now().Sub(c.directoryAt) < directoryTTL {
		directory := c.directory
		c.mu.RUnlock()
		return directory, nil
	}
	c.mu.RUnlock()

	directory, err := c.api.FetchUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh directory cache: %w", err)
	}

	c.mu.Lock()
	c.directory = directory
	c.directoryAt = c.now()
	c.mu.Unlock()

	c.logger.Debug("Directory cache refreshed", zap.Int("count", len(directory)))

	return directory, nil
}
