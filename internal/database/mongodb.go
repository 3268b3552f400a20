package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ypb/phonebook/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectAttempts = 3

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
// The ping is retried a few times so the service survives a database that starts slower than it does.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	clientOpts := options.Client().ApplyURI(uri)
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client, err := connectOnce(ctx, clientOpts, timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("mongo connect attempt %d/%d failed: %v", attempt, connectAttempts, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return nil, lastErr
}

func connectOnce(ctx context.Context, clientOpts *options.ClientOptions, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}
