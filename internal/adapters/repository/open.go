package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

// Open builds the store for backend.
func Open(ctx context.Context, backend string, opts ...Option) (Store, error) {
	o := options{dir: ".", keyPrefix: "handout"}
	for _, opt := range opts {
		opt(&o)
	}

	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(o.dir)
	case BackendSQLite:
		return OpenSQL(ctx, DialectSQLite, o.path)
	case BackendMySQL:
		return OpenSQL(ctx, DialectMySQL, o.dsn)
	case BackendRedis:
		client := o.client
		if client == nil {
			client = redis.NewClient(&redis.Options{Addr: o.addr})
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis %s: %w", o.addr, err)
		}
		return NewRedisStore(client, o.keyPrefix), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
