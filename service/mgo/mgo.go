package mgo

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"baatcheet/logger"
)

type Config struct {
	URI         string
	Database    string
	Username    string
	Password    string
	MaxPoolSize uint64
}

type Manager struct {
	mu        sync.RWMutex
	client    *mongo.Client
	db        *mongo.Database
	readyCh   chan struct{} // closed exactly once on first successful connect
	readyOnce sync.Once

	lastErr atomic.Value // error
}

var globalMgr = Manager{readyCh: make(chan struct{})}

// StartAsync runs until ctx is done; closes the ready channel on first
// connect and reconnects automatically after repeated health failures.
func StartAsync(ctx context.Context, cfg Config) {
	go func() {
		const (
			baseBackoff = 200 * time.Millisecond
			maxBackoff  = 5 * time.Second
			healthEvery = 10 * time.Second
			failThresh  = 3
		)

		for {
			// connect phase, with backoff
			attempt := 0
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				cli, err := connect(ctx, cfg)
				if err == nil {
					globalMgr.mu.Lock()
					globalMgr.client = cli
					globalMgr.db = cli.Database(cfg.Database)
					globalMgr.mu.Unlock()
					globalMgr.readyOnce.Do(func() { close(globalMgr.readyCh) })
					break
				}
				globalMgr.lastErr.Store(err)
				logger.Warnf("[mgo] connect failed: %v", err)

				backoff := baseBackoff << attempt
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				jitter := time.Duration(rand.Int63n(int64(backoff/5) + 1))
				timer := time.NewTimer(backoff - jitter/2)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
				if attempt < 6 {
					attempt++
				}
			}

			// health phase; fall back to the connect phase on repeated failures
			if !healthLoop(ctx, healthEvery, failThresh) {
				return
			}
		}
	}()
}

func healthLoop(ctx context.Context, every time.Duration, failThresh int) bool {
	fail := 0
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			disconnect()
			return false
		case <-t.C:
			globalMgr.mu.RLock()
			c := globalMgr.client
			globalMgr.mu.RUnlock()
			if c == nil {
				return true
			}
			if err := c.Ping(ctx, nil); err != nil {
				fail++
				globalMgr.lastErr.Store(err)
				if fail >= failThresh {
					disconnect()
					return true
				}
			} else {
				fail = 0
			}
		}
	}
}

func connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{Username: cfg.Username, Password: cfg.Password})
	}
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cli, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(cctx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return cli, nil
}

func disconnect() {
	globalMgr.mu.Lock()
	defer globalMgr.mu.Unlock()
	if globalMgr.client != nil {
		_ = globalMgr.client.Disconnect(context.Background())
		globalMgr.client = nil
		globalMgr.db = nil
	}
}

// Ready is closed on the first successful connect.
func Ready() <-chan struct{} {
	return globalMgr.readyCh
}

// WaitReady blocks until the first connect or ctx expiry.
func WaitReady(ctx context.Context) error {
	globalMgr.mu.RLock()
	connected := globalMgr.client != nil
	globalMgr.mu.RUnlock()
	if connected {
		return nil
	}
	select {
	case <-globalMgr.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the most recent connection error.
func Err() error {
	if v := globalMgr.lastErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func GetDB() *mongo.Database {
	globalMgr.mu.RLock()
	defer globalMgr.mu.RUnlock()
	if globalMgr.db == nil {
		panic("mongo not ready: wait Ready() or use TryGetDB()")
	}
	return globalMgr.db
}

func TryGetDB() (*mongo.Database, bool) {
	globalMgr.mu.RLock()
	defer globalMgr.mu.RUnlock()
	if globalMgr.db == nil {
		return nil, false
	}
	return globalMgr.db, true
}
