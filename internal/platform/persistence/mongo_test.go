package persistence

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/amazon-ynab-reconciler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestMongoDB_Accessors(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	// Connect does not dial, so no server is needed here
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(context.Background()) }()

	mdb := &MongoDB{
		logger:   logger,
		client:   client,
		database: client.Database("reconciler"),
	}

	assert.Equal(t, "reconciler", mdb.Database().Name())
	assert.Equal(t, "invoices", mdb.Collection("invoices").Name())
	assert.Equal(t, "reconciler", mdb.Collection("invoices").Database().Name())
}

func TestNewMongoDB_PingFailure(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	cfg := &config.MongoDBConfig{
		URI:             "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=100&connectTimeoutMS=100",
		Database:        "reconciler",
		Timeout:         200 * time.Millisecond,
		MaxPoolSize:     1,
		MinPoolSize:     0,
		MaxConnIdleTime: time.Second,
	}

	mdb, err := NewMongoDB(context.Background(), logger, cfg)
	require.Error(t, err)
	assert.Nil(t, mdb)
	assert.Contains(t, err.Error(), "failed to ping MongoDB")
}
