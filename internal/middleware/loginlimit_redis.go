package middleware

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/rockguard/portal-server-go/internal/config"
)

const loginLimitKeyPrefix = "loginlimit:"

// loginLimitScript counts attempts in a sliding window per client IP.
var loginLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    return 0
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

return 1
`)

// RedisLoginLimiter shares the attempt budget across replicas. On any Redis
// fault it allows the request: login already fails closed on credentials.
type RedisLoginLimiter struct {
	client *redis.Client
}

func NewRedisLoginLimiter(client *redis.Client) *RedisLoginLimiter {
	return &RedisLoginLimiter{client: client}
}

func (l *RedisLoginLimiter) Allow(r *http.Request, ip string) bool {
	now := time.Now().Unix()
	key := loginLimitKeyPrefix + ip

	result, err := loginLimitScript.Run(
		r.Context(),
		l.client,
		[]string{key},
		now,
		int64(config.LoginWindow.Seconds()),
		config.LoginMaxAttempts,
	).Int64()
	if err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("redis login limit check failed, allowing request")
		return true
	}

	return result == 1
}
