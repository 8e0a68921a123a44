// Package redis publishes emitted signals and per-asset evaluation snapshots
// to Redis for downstream consumers (dashboards, other bots). The publisher is
// optional: the bot runs fine without Redis and keeps alerting over Telegram.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"rpdbot/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	signalStream    = "rpd:signals"
	signalStreamMax = 1000
	lastEvalPrefix  = "rpd:last_eval:"
	lastEvalTTL     = 30 * time.Minute
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes signals and evaluation snapshots to Redis.
type Publisher struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a new Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// PublishSignal appends an emitted signal to the capped signal stream and
// publishes it on a pub/sub channel for live listeners.
func (p *Publisher) PublishSignal(ctx context.Context, sig *model.Signal) error {
	payload := string(sig.JSON())

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: signalStream,
		MaxLen: signalStreamMax,
		Approx: true,
		Values: map[string]interface{}{
			"asset": sig.Asset,
			"kind":  string(sig.Kind),
			"ts":    sig.TS.Unix(),
			"json":  payload,
		},
	})
	pipe.Publish(ctx, "pub:"+signalStream, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish signal: %w", err)
	}
	return nil
}

// EvalSnapshot is the per-asset state written after every evaluation pass,
// whether or not it fired.
type EvalSnapshot struct {
	Asset      string          `json:"asset"`
	CheckedAt  time.Time       `json:"checked_at"`
	Candles    int             `json:"candles"`
	Fired      bool            `json:"fired"`
	Kind       string          `json:"kind,omitempty"`
	LastCandle json.RawMessage `json:"last_candle,omitempty"` // newest bar of the evaluated series
}

// PublishEval stores the latest evaluation snapshot for an asset with a TTL,
// so a stale key means the poller stopped looking at that asset.
func (p *Publisher) PublishEval(ctx context.Context, snap EvalSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis marshal last_eval: %w", err)
	}
	if err := p.client.Set(ctx, lastEvalPrefix+snap.Asset, b, lastEvalTTL).Err(); err != nil {
		return fmt.Errorf("redis set last_eval: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
