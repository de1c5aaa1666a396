package repository

import "github.com/redis/go-redis/v9"

type options struct {
	dir       string
	path      string
	dsn       string
	addr      string
	keyPrefix string
	client    *redis.Client
}

// Option configures Open.
type Option func(*options)

// WithDir sets the directory of the file backend.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithPath sets the sqlite database file.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithDSN sets the MySQL data source name.
func WithDSN(dsn string) Option {
	return func(o *options) { o.dsn = dsn }
}

// WithRedisAddr sets the Redis address.
func WithRedisAddr(addr string) Option {
	return func(o *options) { o.addr = addr }
}

// WithKeyPrefix namespaces Redis keys.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.keyPrefix = prefix
		}
	}
}

// WithRedisClient uses an existing client instead of dialing addr.
func WithRedisClient(c *redis.Client) Option {
	return func(o *options) { o.client = c }
}
