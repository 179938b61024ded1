package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DBinstance connects to MongoDB and verifies the connection with a ping.
func DBinstance(ctx context.Context, mongoURI string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		if derr := client.Disconnect(context.Background()); derr != nil {
			slog.Warn("disconnect after failed ping", "error", derr)
		}
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	slog.Info("Connected to MongoDB", "uri_host", hostOf(mongoURI))
	return client, nil
}

// hostOf strips credentials from a connection string before logging it.
func hostOf(uri string) string {
	hosts := options.Client().ApplyURI(uri).Hosts
	if len(hosts) == 0 {
		return "unknown"
	}
	return hosts[0]
}
