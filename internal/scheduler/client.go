package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"engagement_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// A queued sweep for the same tenant and job is deduplicated for this long.
const sweepUniqueTTL = 5 * time.Minute

type Client struct {
	client  *asynq.Client
	queue   string
	timeout time.Duration
}

// SweepEnqueuer queues an on-demand sweep. enqueued is false when an
// identical sweep is already waiting.
type SweepEnqueuer interface {
	EnqueueSweep(ctx context.Context, payload SweepTenantPayload) (enqueued bool, err error)
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client:  asynq.NewClient(opt),
		queue:   queueName(cfg),
		timeout: cfg.GetTenantJobTimeout(),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) EnqueueSweep(ctx context.Context, payload SweepTenantPayload) (bool, error) {
	task, err := NewSweepTenantTask(payload)
	if err != nil {
		return false, err
	}

	opts := []asynq.Option{asynq.Queue(c.queue), asynq.Unique(sweepUniqueTTL), asynq.MaxRetry(1)}
	if c.timeout > 0 {
		opts = append(opts, asynq.Timeout(c.timeout))
	}

	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func queueName(cfg config.SchedulerConfig) string {
	if q := cfg.GetAsynqQueueName(); q != "" {
		return q
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
