// Package activity records who did what: logins, searches and page edits.
// Info carries routine traffic, Update carries changes to the directory.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ypb/phonebook/pkg/logger"
)

const (
	ChannelInfo   = "info"
	ChannelUpdate = "update"
)

// Logger is fire-and-forget: failures are logged, never returned.
type Logger interface {
	Info(ctx context.Context, msg string)
	Update(ctx context.Context, msg string)
}

// Entry is one stored activity line.
type Entry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// LogSink writes activity to the application log.
type LogSink struct{}

func (LogSink) Info(ctx context.Context, msg string) {
	logger.Infof("[activity:%s] %s", ChannelInfo, msg)
}
func (LogSink) Update(ctx context.Context, msg string) {
	logger.Infof("[activity:%s] %s", ChannelUpdate, msg)
}

// RedisSink keeps the most recent entries of each channel in a capped list.
type RedisSink struct {
	client *redis.Client
	max    int64
	now    func() time.Time
}

func NewRedisSink(c *redis.Client, max int) *RedisSink {
	if max <= 0 {
		max = 1000
	}
	return &RedisSink{client: c, max: int64(max), now: time.Now}
}

func listKey(channel string) string { return "phonebook:activity:" + channel }

func (r *RedisSink) Info(ctx context.Context, msg string)   { r.push(ctx, ChannelInfo, msg) }
func (r *RedisSink) Update(ctx context.Context, msg string) { r.push(ctx, ChannelUpdate, msg) }

func (r *RedisSink) push(ctx context.Context, channel, msg string) {
	data, err := json.Marshal(Entry{At: r.now().UTC(), Message: msg})
	if err != nil {
		logger.Warnf("activity: encode entry: %v", err)
		return
	}
	key := listKey(channel)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, r.max-1)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warnf("activity: push to %s: %v", key, err)
	}
}

// Recent returns up to n entries of channel, newest first.
func (r *RedisSink) Recent(ctx context.Context, channel string, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	raw, err := r.client.LRange(ctx, listKey(channel), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(raw))
	for _, s := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Multi fans every entry out to several loggers.
type Multi []Logger

func (m Multi) Info(ctx context.Context, msg string) {
	for _, l := range m {
		l.Info(ctx, msg)
	}
}

func (m Multi) Update(ctx context.Context, msg string) {
	for _, l := range m {
		l.Update(ctx, msg)
	}
}
