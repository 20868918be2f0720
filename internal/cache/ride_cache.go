package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arvindrao/savaari/internal/models"
)

const (
	driverLocationKeyPrefix = "driver:location:"
	driverActiveRideKey     = "driver:active:"
	userActiveRideKey       = "user:active:"
	locationTTL             = 5 * time.Minute
	activeRideTTL           = 2 * time.Hour

	// RideEventsChannel carries every ride event; consumers filter by ride id.
	RideEventsChannel = "rides:events"
)

type DriverLocation struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Heading   float64 `json:"heading,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
	UpdatedAt int64   `json:"updated_at"`
}

type RideCache interface {
	UpdateDriverLocation(ctx context.Context, driverID string, lat, lng float64, heading, speed *float64) error
	GetDriverLocation(ctx context.Context, driverID string) (*DriverLocation, error)
	SetDriverActiveRide(ctx context.Context, driverID, rideID string) error
	GetDriverActiveRide(ctx context.Context, driverID string) (string, error)
	ClearDriverActiveRide(ctx context.Context, driverID string) error
	SetUserActiveRide(ctx context.Context, userID, rideID string) error
	GetUserActiveRide(ctx context.Context, userID string) (string, error)
	ClearUserActiveRide(ctx context.Context, userID string) error
	PublishRideEvent(ctx context.Context, event *models.RideEvent) error
	SubscribeRideEvents(ctx context.Context) *redis.PubSub
}

type rideCache struct {
	redis *redis.Client
}

func NewRideCache(redisClient *redis.Client) RideCache {
	return &rideCache{redis: redisClient}
}

func (c *rideCache) UpdateDriverLocation(ctx context.Context, driverID string, lat, lng float64, heading, speed *float64) error {
	loc := DriverLocation{
		Lat:       lat,
		Lng:       lng,
		UpdatedAt: time.Now().Unix(),
	}
	if heading != nil {
		loc.Heading = *heading
	}
	if speed != nil {
		loc.Speed = *speed
	}

	locJSON, err := json.Marshal(loc)
	if err != nil {
		return err
	}

	return c.redis.Set(ctx, driverLocationKeyPrefix+driverID, locJSON, locationTTL).Err()
}

func (c *rideCache) GetDriverLocation(ctx context.Context, driverID string) (*DriverLocation, error) {
	data, err := c.redis.Get(ctx, driverLocationKeyPrefix+driverID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var loc DriverLocation
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, err
	}

	return &loc, nil
}

func (c *rideCache) SetDriverActiveRide(ctx context.Context, driverID, rideID string) error {
	return c.redis.Set(ctx, driverActiveRideKey+driverID, rideID, activeRideTTL).Err()
}

func (c *rideCache) GetDriverActiveRide(ctx context.Context, driverID string) (string, error) {
	result, err := c.redis.Get(ctx, driverActiveRideKey+driverID).Result()
	if err == redis.Nil {
		return "", nil
	}
	return result, err
}

func (c *rideCache) ClearDriverActiveRide(ctx context.Context, driverID string) error {
	return c.redis.Del(ctx, driverActiveRideKey+driverID).Err()
}

func (c *rideCache) SetUserActiveRide(ctx context.Context, userID, rideID string) error {
	return c.redis.Set(ctx, userActiveRideKey+userID, rideID, activeRideTTL).Err()
}

func (c *rideCache) GetUserActiveRide(ctx context.Context, userID string) (string, error) {
	result, err := c.redis.Get(ctx, userActiveRideKey+userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	return result, err
}

func (c *rideCache) ClearUserActiveRide(ctx context.Context, userID string) error {
	return c.redis.Del(ctx, userActiveRideKey+userID).Err()
}

func (c *rideCache) PublishRideEvent(ctx context.Context, event *models.RideEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.redis.Publish(ctx, RideEventsChannel, data).Err()
}

func (c *rideCache) SubscribeRideEvents(ctx context.Context) *redis.PubSub {
	return c.redis.Subscribe(ctx, RideEventsChannel)
}
