// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application
// startup. All helpers are nil-safe: with no Redis configured the feed
// path falls through to SQL.
var Rdb *redis.Client

// friendSetTTL bounds staleness of the cached visibility set; accepts
// also invalidate both sides eagerly.
const friendSetTTL = 5 * time.Minute

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

func friendKey(userID int64) string {
	return "friends:" + strconv.FormatInt(userID, 10)
}

// FriendIDs returns the cached accepted-friend ids for userID. The
// second result is false on a miss or when Redis is unavailable.
func FriendIDs(ctx context.Context, userID int64) ([]int64, bool) {
	if Rdb == nil {
		return nil, false
	}
	data, err := Rdb.Get(ctx, friendKey(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

// StoreFriendIDs caches the friend id set for userID. Failures are
// ignored; the cache is advisory.
func StoreFriendIDs(ctx context.Context, userID int64, ids []int64) {
	if Rdb == nil {
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return
	}
	Rdb.Set(ctx, friendKey(userID), data, friendSetTTL)
}

// InvalidateFriends drops the cached sets for the given users, called
// after an accepted request changes the visibility set on both sides.
func InvalidateFriends(ctx context.Context, userIDs ...int64) {
	if Rdb == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = friendKey(id)
	}
	Rdb.Del(ctx, keys...)
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
