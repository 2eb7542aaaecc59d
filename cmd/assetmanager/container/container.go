package container

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/repository"
	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/service"
	"github.com/ericborczuk/cloud-asset-manager/common/bootstrap"
	"github.com/ericborczuk/cloud-asset-manager/common/ratelimit"
	"github.com/ericborczuk/cloud-asset-manager/common/signer"
)

// Container holds all initialized services and clients (singleton pattern)
type Container struct {
	Components *bootstrap.Components
	Redis      *redis.Client

	// Clients
	Signer *signer.Signer

	// Repositories
	TxRunner repository.TxRunner

	// Services
	AssetService *service.AssetService

	// Rate limiting (nil when disabled)
	RateLimiter *ratelimit.RateLimiter
}

// NewContainer initializes all services and clients once
func NewContainer(ctx context.Context, components *bootstrap.Components) (*Container, error) {
	cfg := components.Config

	// Signed URL issuer over the object store client
	urlSigner, err := signer.New(ctx, cfg.Storage, components.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	// One fresh transaction per workflow call
	txRunner := repository.NewTxRunner(components.DB)

	events := service.NewEventPublisher(components.Queue, cfg.Queue.Topic, components.Logger)

	assetService := service.NewAssetService(
		txRunner,
		urlSigner,
		events,
		cfg.Storage,
		components.Logger,
	)

	c := &Container{
		Components:   components,
		Signer:       urlSigner,
		TxRunner:     txRunner,
		AssetService: assetService,
	}

	if cfg.RateLimit.Enabled {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		c.RateLimiter = ratelimit.NewRateLimiter(c.Redis, components.Logger)
	}

	return c, nil
}

// Close releases container-owned clients
func (c *Container) Close() error {
	if c.Redis != nil {
		return c.Redis.Close()
	}
	return nil
}
