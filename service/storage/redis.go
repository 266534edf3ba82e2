package storage

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

var (
	redisOnce sync.Once
	rdb       *redis.Client
)

// InitRedis initializes the shared client (singleton).
func InitRedis(c Config) error {
	var initErr error
	redisOnce.Do(func() {
		cli := redis.NewClient(&redis.Options{
			Addr:     c.Addr,
			Password: c.Password,
			DB:       c.DB,
			PoolSize: c.PoolSize,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := cli.Ping(ctx).Err(); err != nil {
			initErr = err
			return
		}
		rdb = cli
	})
	return initErr
}

// Ready reports whether InitRedis succeeded. Session checks degrade to
// signature-only verification when redis is absent.
func Ready() bool { return rdb != nil }

func Client() *redis.Client {
	if rdb == nil {
		panic("redis not initialized, call InitRedis first")
	}
	return rdb
}

func CloseRedis() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}
