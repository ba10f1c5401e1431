package notify

import "github.com/redis/go-redis/v9"

// NewRedisClient builds the client backing the cross-instance refresh
// bridge. Callers skip redis entirely (addr == "") when running a
// single instance.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
