package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/sandboxfs/internal/service"
	"github.com/GriffinCanCode/sandboxfs/internal/shared/id"
	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
	"github.com/GriffinCanCode/sandboxfs/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config bounds a stream connection
type Config struct {
	// MaxInFlight caps concurrently executing messages per connection
	MaxInFlight int
	// CallTimeout bounds a single tool call; zero means no limit
	CallTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns stream limits suitable for interactive clients
func DefaultConfig() Config {
	return Config{
		MaxInFlight:  8,
		CallTimeout:  2 * time.Minute,
		WriteTimeout: 10 * time.Second,
	}
}

// Handler manages WebSocket connections
type Handler struct {
	registry *service.Registry
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	logger   *logging.Logger
	cfg      Config
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(registry *service.Registry, metrics *monitoring.Metrics, tracer *tracing.Tracer, logger *logging.Logger, cfg Config) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultConfig().MaxInFlight
	}
	return &Handler{
		registry: registry,
		metrics:  metrics,
		tracer:   tracer,
		logger:   logger,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// conn serializes writes to one WebSocket
type conn struct {
	ws           *websocket.Conn
	id           id.ConnID
	mu           sync.Mutex
	writeTimeout time.Duration
}

func (c *conn) send(resp types.StreamResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteJSON(resp)
}

// HandleConnection upgrades the request and serves stream messages until
// the client disconnects. Messages run concurrently; responses carry the
// request ID so the client can match them.
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()
	ws.SetReadLimit(utils.MaxMessageSize)

	cn := &conn{ws: ws, id: id.NewConnID(), writeTimeout: h.cfg.WriteTimeout}
	log := h.logger.With(zap.String("conn_id", cn.id.String()))

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	log.Info("stream connected", zap.String("remote", c.ClientIP()))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.MaxInFlight)

	h.write(cn, types.StreamResponse{Type: types.StreamSystem, Message: "connected to sandboxfs"})

	for {
		var msg types.StreamRequest
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("stream read error", zap.Error(err))
			}
			break
		}
		h.recordMessage("in", msg.Type)

		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}

		switch msg.Type {
		case types.StreamPing:
			h.write(cn, types.StreamResponse{Type: types.StreamPong, ID: msg.ID})
		case "", types.StreamExecute:
			if err := utils.ValidateToolID(msg.ToolID, "tool_id", true); err != nil {
				h.write(cn, types.StreamResponse{Type: types.StreamError, ID: msg.ID, Error: err.Error()})
				continue
			}
			g.Go(func() error {
				h.execute(gctx, cn, msg)
				return nil
			})
		default:
			h.write(cn, types.StreamResponse{Type: types.StreamError, ID: msg.ID, Error: "unknown message type: " + msg.Type})
		}
	}

	cancel()
	g.Wait()
	log.Info("stream disconnected")
}

func (h *Handler) execute(ctx context.Context, cn *conn, msg types.StreamRequest) {
	if h.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.CallTimeout)
		defer cancel()
	}

	requestID := id.RequestID(msg.ID)
	if utils.ValidateToolID(msg.ID, "id", true) != nil {
		requestID = id.NewRequestID()
	}
	ctx = tracing.WithRequestID(ctx, requestID)
	var span *tracing.Span
	if h.tracer != nil {
		span, ctx = h.tracer.StartSpan(ctx, "stream "+msg.ToolID)
		span.SetTag("conn_id", cn.id.String())
		defer func() {
			span.Finish()
			h.tracer.Submit(span)
		}()
	}

	result, err := h.registry.Execute(ctx, msg.ToolID, msg.Params)
	if err != nil {
		if span != nil {
			span.SetError(err)
		}
		h.write(cn, types.StreamResponse{Type: types.StreamError, ID: msg.ID, Error: "internal error"})
		return
	}
	h.write(cn, types.StreamResponse{Type: types.StreamResult, ID: msg.ID, Result: result})
}

func (h *Handler) write(cn *conn, resp types.StreamResponse) {
	if err := cn.send(resp); err != nil {
		h.logger.Debug("stream write failed", zap.String("conn_id", cn.id.String()), zap.Error(err))
		return
	}
	h.recordMessage("out", resp.Type)
}

func (h *Handler) recordMessage(direction, msgType string) {
	if h.metrics == nil {
		return
	}
	if msgType == "" {
		msgType = types.StreamExecute
	}
	h.metrics.RecordWSMessage(direction, msgType)
}
