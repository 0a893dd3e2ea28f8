package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"storefront-gateway/app/middleware"
	"storefront-gateway/metrics"
	"storefront-gateway/models"
	"storefront-gateway/service"
)

const writeWait = 10 * time.Second

// eventMessage is pushed to the client on every refresh
type eventMessage struct {
	Type  string           `json:"type"` // "cart" or "error"
	Cart  *models.CartView `json:"cart,omitempty"`
	Error string           `json:"error,omitempty"`
}

// clientMessage is what the client may send on the socket
type clientMessage struct {
	Type  string `json:"type"` // "refresh" or "auth"
	Token string `json:"token,omitempty"`
}

// EventsController streams the live cart of a device over a websocket.
// Each connection is one mounted cart view.
type EventsController struct {
	carts        service.CartViewLoader
	broadcasters service.BroadcasterProvider
	tokens       *middleware.TokenParser
	upgrader     websocket.Upgrader
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// NewEventsController creates a new EventsController
func NewEventsController(
	carts service.CartViewLoader,
	broadcasters service.BroadcasterProvider,
	tokens *middleware.TokenParser,
	allowedOrigins []string,
	logger *zap.Logger,
	m *metrics.Metrics,
) *EventsController {
	return &EventsController{
		carts:        carts,
		broadcasters: broadcasters,
		tokens:       tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger:  logger,
		metrics: m,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if set[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// Stream handles GET /cart/events
func (ec *EventsController) Stream(c *gin.Context) {
	conn, err := ec.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ec.logger.Warn("⚠️ Stream: websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	req := cartRequest(c)
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sink := func(view *models.CartView, err error) {
		msg := eventMessage{Type: "cart", Cart: view}
		if err != nil {
			_, text := errorStatus(err)
			msg = eventMessage{Type: "error", Error: text}
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			ec.logger.Debug("🔌 Stream: write failed", zap.String("device_id", req.DeviceID), zap.Error(err))
			cancel()
		}
	}

	live := service.NewLiveCartView(ec.carts, ec.broadcasters.ForDevice(req.DeviceID), req, sink, ec.logger)
	live.Mount(ctx)
	ec.metrics.LiveViews.Inc()
	defer ec.metrics.LiveViews.Dec()
	defer live.Unmount()

	ec.logger.Info("🔌 Live cart view mounted", zap.String("device_id", req.DeviceID))
	ec.readLoop(ctx, conn, live)
	ec.logger.Info("🔌 Live cart view unmounted", zap.String("device_id", req.DeviceID))
}

// readLoop handles client messages until the socket closes or ctx ends
func (ec *EventsController) readLoop(ctx context.Context, conn *websocket.Conn, live *service.LiveCartView) {
	go func() {
		<-ctx.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "refresh":
			live.Refresh(ctx, service.ViewOptions{Fresh: true})
		case "auth":
			// Signed in (or out) while connected: later refreshes use the new identity.
			var user *models.User
			if msg.Token != "" {
				parsed, err := ec.tokens.Parse(msg.Token)
				if err != nil {
					ec.logger.Warn("⚠️ Stream: rejected auth message", zap.Error(err))
					continue
				}
				user = parsed
			}
			live.SetUser(user)
			live.Refresh(ctx, service.ViewOptions{Fresh: true})
		}
	}
}
