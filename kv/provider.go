package kv

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Options = fx.Options(
	fx.Provide(NewClient),
	fx.Invoke(func(lc fx.Lifecycle, client *redis.Client) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
	}),
)
