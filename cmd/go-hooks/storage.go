package main

import (
	"fmt"

	"github.com/prasenjit/go-hooks/internal/config"
	"github.com/prasenjit/go-hooks/internal/storage"
)

// openStorage opens the configured storage backend
func openStorage(cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case config.StorageFile:
		store, err := storage.NewFileStorage(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return store, nil
	case config.StorageRedis:
		store, err := storage.NewRedisStorage(storage.RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return storage.NewMemoryStorage(), nil
	}
}
