package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nvidales/chess-server/internal/obslog"
)

// RedisPublisher pushes events over Redis pub/sub so listeners outside
// this process (notification relays, spectator gateways) can follow
// games without touching the session manager.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis publisher")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisPublisher{rdb: rdb}, nil
}

func (p *RedisPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}

// Channel returns the pub/sub channel name carrying one game's events.
func Channel(gameID string) string { return "chess:events:" + strings.TrimSpace(gameID) }

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	if p == nil || p.rdb == nil {
		return
	}
	raw, err := json.Marshal(&ev)
	if err != nil {
		obslog.L().Error("event_marshal_error", zap.String("game_id", ev.GameID), zap.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, Channel(ev.GameID), raw).Err(); err != nil {
		obslog.L().Warn("event_publish_error",
			zap.String("game_id", ev.GameID),
			zap.String("kind", string(ev.Kind)),
			zap.Error(err),
		)
	}
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
