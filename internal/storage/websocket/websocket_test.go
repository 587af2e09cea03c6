package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/storage"
	"github.com/tmcoach/board/internal/storage/memory"
	"github.com/tmcoach/board/internal/storage/storagetest"
	"github.com/tmcoach/board/pkg/streaming"
)

// Compile-time interface check.
var _ storage.Backend = (*Backend)(nil)

// testServer creates an httptest server that upgrades to WebSocket, records
// received messages and answers them from a memory backend.
func testServer(t *testing.T) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}
	store := memory.New(config.MemoryConfig{})

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.setSecret(r.URL.Query().Get("secret"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)
			if env.Type == "ignore" {
				continue
			}

			data, _ := json.Marshal(answer(r.Context(), store, env))
			if err := c.WriteMessage(ws.TextMessage, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, ml
}

func answer(ctx context.Context, store storage.Backend, env streaming.Envelope) streaming.AckMessage {
	fail := func(err error) streaming.AckMessage {
		code := streaming.CodeInternal
		switch {
		case errors.Is(err, storage.ErrNotFound):
			code = streaming.CodeNotFound
		case errors.Is(err, storage.ErrInvalidName):
			code = streaming.CodeInvalidName
		}
		return streaming.Fail(env, code, err)
	}

	var p streaming.ProjectPayload
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return streaming.Fail(env, streaming.CodeBadRequest, err)
		}
	}

	var reply any
	var err error
	switch env.Type {
	case streaming.TypeSave:
		err = store.Save(ctx, p.Name, p.Document)
	case streaming.TypeLoad:
		var data []byte
		data, err = store.Load(ctx, p.Name)
		reply = streaming.ProjectPayload{Name: p.Name, Document: data}
	case streaming.TypeDelete:
		err = store.Delete(ctx, p.Name)
	case streaming.TypeList:
		reply, err = store.List(ctx)
	default:
		return streaming.Fail(env, streaming.CodeBadRequest, errors.New("unknown type"))
	}
	if err != nil {
		return fail(err)
	}
	ack, _ := streaming.Reply(env, reply)
	return ack
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	secret   string
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) setSecret(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = s
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func connect(t *testing.T, srv *httptest.Server) *Backend {
	t.Helper()
	b := New(config.WebSocketConfig{URL: wsURL(srv), Secret: "test"}, nil)
	require.NoError(t, b.Init())
	return b
}

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		srv, _ := testServer(t)
		return connect(t, srv)
	})
}

func TestRequestsCarryIDsAndSecret(t *testing.T) {
	srv, ml := testServer(t)
	b := connect(t, srv)
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, b.Save(ctx, "p", []byte(`{"version":3}`)))
	_, err := b.Load(ctx, "p")
	require.NoError(t, err)

	msgs := ml.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, streaming.TypeSave, msgs[0].Type)
	assert.Equal(t, streaming.TypeLoad, msgs[1].Type)
	assert.NotEmpty(t, msgs[0].ID)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)

	ml.mu.Lock()
	assert.Equal(t, "test", ml.secret)
	ml.mu.Unlock()
}

func TestSave_RejectsNonJSON(t *testing.T) {
	srv, ml := testServer(t)
	b := connect(t, srv)
	defer b.Close()

	assert.Error(t, b.Save(context.Background(), "p", []byte("not json")))
	assert.Empty(t, ml.all())
}

func TestRequest_ContextCancelled(t *testing.T) {
	srv, _ := testServer(t)
	b := connect(t, srv)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	env, err := streaming.NewEnvelope("ignore", "r1", nil)
	require.NoError(t, err)

	_, err = b.conn.request(ctx, env, time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequest_AfterClose(t *testing.T) {
	srv, _ := testServer(t)
	b := connect(t, srv)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err := b.List(context.Background())
	assert.Error(t, err)
}

func TestInit_DialFailure(t *testing.T) {
	b := New(config.WebSocketConfig{URL: "ws://127.0.0.1:1/ws"}, nil)
	assert.Error(t, b.Init())
}
