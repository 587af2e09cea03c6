package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/storage"
	filestore "github.com/tmcoach/board/internal/storage/file"
	"github.com/tmcoach/board/internal/storage/memory"
	pgstorage "github.com/tmcoach/board/internal/storage/postgres"
	redisstorage "github.com/tmcoach/board/internal/storage/redis"
	sqlitestorage "github.com/tmcoach/board/internal/storage/sqlite"
	wsstorage "github.com/tmcoach/board/internal/storage/websocket"
)

func createStorageBackend(storageCfg config.StorageConfig, apiCfg config.APIConfig, log *slog.Logger, dbLog zerolog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "", "file":
		log.Debug("File storage backend selected", "dir", storageCfg.File.Dir)
		return filestore.New(storageCfg.File), nil

	case "memory":
		log.Debug("Memory storage backend selected")
		return memory.New(storageCfg.Memory), nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, log, dbLog)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		log.Debug("SQLite storage backend selected")
		return backend, nil

	case "postgres":
		log.Debug("Postgres storage backend selected", "host", storageCfg.Postgres.Host)
		return pgstorage.New(storageCfg.Postgres, log, dbLog), nil

	case "redis":
		log.Debug("Redis storage backend selected", "addr", storageCfg.Redis.Addr)
		return redisstorage.New(storageCfg.Redis, log), nil

	case "websocket":
		wsCfg := storageCfg.WebSocket
		if wsCfg.URL == "" {
			wsCfg.URL = httpToWS(apiCfg.ServerURL) + "/ws"
		}
		if wsCfg.Secret == "" {
			wsCfg.Secret = apiCfg.APIKey
		}
		log.Debug("WebSocket storage backend selected", "url", wsCfg.URL)
		return wsstorage.New(wsCfg, log), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
