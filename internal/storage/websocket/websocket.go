// Package websocket stores projects on a remote server over a WebSocket
// connection using the streaming request/ack protocol.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/storage"
	"github.com/tmcoach/board/pkg/streaming"
)

// Backend forwards every storage call to the server and waits for its ack.
type Backend struct {
	conn *connection
	cfg  config.WebSocketConfig
}

// New creates a new WebSocket storage backend.
func New(cfg config.WebSocketConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger.With("component", "websocket")),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// call sends one request and decodes the reply payload into out when set
func (b *Backend) call(ctx context.Context, msgType string, payload, out any) error {
	env, err := streaming.NewEnvelope(msgType, uuid.NewString(), payload)
	if err != nil {
		return err
	}
	ack, err := b.conn.request(ctx, env, ackTimeout)
	if err != nil {
		return err
	}
	if !ack.OK() {
		return ackError(ack)
	}
	if out != nil {
		if err := json.Unmarshal(ack.Payload, out); err != nil {
			return fmt.Errorf("decode %s reply: %w", msgType, err)
		}
	}
	return nil
}

// ackError maps a failed ack back onto the storage sentinels
func ackError(ack streaming.AckMessage) error {
	var sentinel error
	switch ack.Code {
	case streaming.CodeNotFound:
		sentinel = storage.ErrNotFound
	case streaming.CodeInvalidName:
		sentinel = storage.ErrInvalidName
	default:
		return fmt.Errorf("remote %s failed: %s", ack.For, ack.Error)
	}
	return fmt.Errorf("%w: %s", sentinel, ack.Error)
}

// Save sends the project to the server
func (b *Backend) Save(ctx context.Context, name string, data []byte) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	if !json.Valid(data) {
		return errors.New("websocket storage: project body is not JSON")
	}
	return b.call(ctx, streaming.TypeSave, streaming.ProjectPayload{Name: name, Document: data}, nil)
}

// Load fetches the project from the server
func (b *Backend) Load(ctx context.Context, name string) ([]byte, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}
	var reply streaming.ProjectPayload
	if err := b.call(ctx, streaming.TypeLoad, streaming.ProjectPayload{Name: name}, &reply); err != nil {
		return nil, err
	}
	return []byte(reply.Document), nil
}

// Delete removes the project on the server
func (b *Backend) Delete(ctx context.Context, name string) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	return b.call(ctx, streaming.TypeDelete, streaming.ProjectPayload{Name: name}, nil)
}

// List returns the server's projects
func (b *Backend) List(ctx context.Context) ([]storage.ProjectInfo, error) {
	infos := []storage.ProjectInfo{}
	if err := b.call(ctx, streaming.TypeList, nil, &infos); err != nil {
		return nil, err
	}
	return storage.SortInfos(infos), nil
}
