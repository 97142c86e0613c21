package configuration

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/Deepakk2104/Zync/internal/directory"
	"github.com/Deepakk2104/Zync/internal/handler"
	"github.com/Deepakk2104/Zync/internal/hub"
	"github.com/Deepakk2104/Zync/internal/presence"
	"github.com/Deepakk2104/Zync/internal/service"
	"github.com/Deepakk2104/Zync/internal/store"
	"github.com/Deepakk2104/Zync/internal/typing"
)

type Container struct {
	ChatHandler    handler.ChatHandler
	MonitorHandler handler.MonitorHandler
	Hub            *hub.Hub
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	mongoClient     *mongo.Database
	firestoreClient *firestore.Client
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, _ := zap.NewProduction()

	container := &Container{
		Config: *config,
		Logger: logger,
	}

	var st store.Store
	switch config.Store.Backend {
	case "mongo":
		db, err := store.OpenMongo(config.Mongo.Uri, config.Mongo.Database)
		if err != nil {
			return nil, err
		}
		container.mongoClient = db
		st = store.NewMongo(db, logger)
	case "firestore":
		client, err := store.OpenFirestore(context.Background(), config.Firestore.ProjectID, config.Firestore.CredentialsFile)
		if err != nil {
			return nil, err
		}
		container.firestoreClient = client
		st = store.NewFirestore(client, logger)
	case "memory", "":
		st = store.NewMemory()
	default:
		return nil, fmt.Errorf("unknown store backend: %q", config.Store.Backend)
	}

	tracker := presence.NewTracker(st, logger)
	coordinator := typing.NewCoordinator(st, logger)
	dir := directory.NewDirectory(st, logger)
	chatService := service.NewChatService(st, tracker, coordinator, dir, logger)

	h := hub.NewHub(chatService, st, tracker, coordinator, logger)
	monitorService := hub.NewMonitorService(h)

	container.ChatHandler = handler.NewChatHandler(chatService, dir)
	container.MonitorHandler = handler.NewMonitorHandler(monitorService)
	container.Hub = h

	return container, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	if c.firestoreClient != nil {
		if err := c.firestoreClient.Close(); err != nil {
			return fmt.Errorf("failed to close Firestore client: %w", err)
		}
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
