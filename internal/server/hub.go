package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tmcoach/board/internal/dispatcher"
	"github.com/tmcoach/board/internal/document"
	"github.com/tmcoach/board/internal/project"
	"github.com/tmcoach/board/internal/storage"
	"github.com/tmcoach/board/pkg/streaming"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// hub answers remote store requests. Each connection is served by one
// goroutine, so requests on a connection are handled in order. Writes go
// through a single queue shared by every connection.
type hub struct {
	projects *project.Service
	log      *slog.Logger
	routes   *dispatcher.Dispatcher
}

// errBadRequest marks envelopes whose payload cannot be decoded
var errBadRequest = errors.New("bad request")

func newHub(projects *project.Service, log *slog.Logger) (*hub, error) {
	h := &hub{projects: projects, log: log.With("component", "hub")}
	d, err := dispatcher.New(h.log)
	if err != nil {
		return nil, err
	}
	d.Register(streaming.TypeSave, h.save, dispatcher.Buffered(writeQueueSize), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(streaming.TypeDelete, h.delete, dispatcher.Buffered(writeQueueSize), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(streaming.TypeLoad, h.load)
	d.Register(streaming.TypeList, h.list)
	h.routes = d
	return h, nil
}

// writeQueueSize bounds the save and delete requests waiting for the writer
const writeQueueSize = 64

// Close stops the write queue
func (h *hub) Close() {
	h.routes.Close()
}

func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WarnContext(r.Context(), "Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(MaxDocumentBytes + 4096)

	ctx := r.Context()
	h.log.DebugContext(ctx, "Client connected", "remote", r.RemoteAddr)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.DebugContext(ctx, "Websocket read error", "error", err)
			}
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			h.log.DebugContext(ctx, "Dropping malformed envelope", "error", err)
			continue
		}

		data, err := json.Marshal(h.handle(ctx, env))
		if err != nil {
			h.log.ErrorContext(ctx, "Encoding ack failed", "error", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.DebugContext(ctx, "Websocket write error", "error", err)
			return
		}
	}
}

func (h *hub) handle(ctx context.Context, env streaming.Envelope) streaming.AckMessage {
	reply, err := h.routes.Dispatch(ctx, env)
	if err != nil {
		return streaming.Fail(env, codeFor(err), err)
	}

	ack, err := streaming.Reply(env, reply)
	if err != nil {
		return streaming.Fail(env, streaming.CodeInternal, err)
	}
	return ack
}

func decodeProject(env streaming.Envelope) (streaming.ProjectPayload, error) {
	var p streaming.ProjectPayload
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return p, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	return p, nil
}

func (h *hub) save(ctx context.Context, env streaming.Envelope) (any, error) {
	p, err := decodeProject(env)
	if err != nil {
		return nil, err
	}
	_, err = h.projects.Import(ctx, p.Name, p.Document)
	return nil, err
}

func (h *hub) load(ctx context.Context, env streaming.Envelope) (any, error) {
	p, err := decodeProject(env)
	if err != nil {
		return nil, err
	}
	data, err := h.projects.Export(ctx, p.Name)
	if err != nil {
		return nil, err
	}
	return streaming.ProjectPayload{Name: p.Name, Document: data}, nil
}

func (h *hub) delete(ctx context.Context, env streaming.Envelope) (any, error) {
	p, err := decodeProject(env)
	if err != nil {
		return nil, err
	}
	return nil, h.projects.Delete(ctx, p.Name)
}

func (h *hub) list(ctx context.Context, _ streaming.Envelope) (any, error) {
	return h.projects.List(ctx)
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return streaming.CodeNotFound
	case errors.Is(err, storage.ErrInvalidName):
		return streaming.CodeInvalidName
	case errors.Is(err, document.ErrInvalidDocument):
		return streaming.CodeInvalidDoc
	case errors.Is(err, errBadRequest), errors.Is(err, dispatcher.ErrUnknownType):
		return streaming.CodeBadRequest
	default:
		return streaming.CodeInternal
	}
}
