package ws

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	slothttp "github.com/GriffinCanCode/msgslot/internal/api/http"
	"github.com/GriffinCanCode/msgslot/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/msgslot/internal/slot"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Room for a base64 encoded max-size message plus the JSON envelope.
	maxFrameSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by the router
	},
}

// Handler manages WebSocket connections
type Handler struct {
	device  *slot.Device
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler. metrics and logger may be nil.
func NewHandler(device *slot.Device, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		device:  device,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleConnection opens a session on the slot and serves frames until the
// peer goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	slotID, err := slothttp.ParseSlot(c.Param("slot"))
	if err != nil {
		slothttp.RespondError(c, err)
		return
	}

	// Open before upgrading so failures still get a proper status code.
	sess, err := h.device.Open(slotID)
	if err != nil {
		slothttp.RespondError(c, err)
		return
	}
	defer func() { _ = sess.Close() }()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Uint32("slot", slotID), zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	log := h.logger.With(
		zap.Uint32("slot", slotID),
		zap.String("handle", sess.Handle().String()))
	log.Debug("stream opened")
	defer log.Debug("stream closed")

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepalive(conn, done)

	opened := sess.SlotID()
	if err := h.send(conn, Response{Type: TypeOpened, Handle: sess.Handle().String(), Slot: &opened}); err != nil {
		return
	}

	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("websocket read error", zap.Error(err))
			}
			return
		}

		var req Request
		if kind == websocket.BinaryMessage {
			req = Request{Type: TypeWrite, Data: raw}
		} else if req, err = decodeRequest(raw); err != nil {
			h.recordFrame("in", "invalid")
			if h.send(conn, errorResponse("", fmt.Errorf("%w: malformed frame: %v", slot.ErrInvalidArgument, err))) != nil {
				return
			}
			continue
		}
		h.recordFrame("in", frameLabel(req.Type))

		if req.Type == TypeClose {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
				time.Now().Add(writeWait))
			return
		}

		if err := h.send(conn, h.dispatch(sess, req)); err != nil {
			log.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

// dispatch runs one request against the session.
func (h *Handler) dispatch(sess *slot.Session, req Request) Response {
	switch req.Type {
	case TypeSelect:
		if req.Channel == nil || *req.Channel < 0 || *req.Channel > math.MaxUint32 {
			return errorResponse(req.ID, fmt.Errorf("%w: channel must be in [1, %d]", slot.ErrInvalidArgument, uint32(math.MaxUint32)))
		}
		if err := sess.SelectChannel(uint32(*req.Channel)); err != nil {
			return errorResponse(req.ID, err)
		}
		return Response{Type: TypeOK, ID: req.ID, Channel: sess.Channel()}

	case TypeWrite:
		n, err := sess.Write(req.Data)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return Response{Type: TypeOK, ID: req.ID, Channel: sess.Channel(), Written: n}

	case TypeRead:
		capacity := slot.MaxMessageSize
		if req.Capacity != nil {
			capacity = *req.Capacity
		}
		if capacity < 0 {
			return errorResponse(req.ID, fmt.Errorf("%w: capacity %d", slot.ErrInvalidArgument, capacity))
		}
		msg, err := sess.Read(capacity)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return Response{Type: TypeData, ID: req.ID, Channel: sess.Channel(), Data: msg}

	case TypePing:
		return Response{Type: TypePong, ID: req.ID}

	default:
		return errorResponse(req.ID, fmt.Errorf("%w: unknown frame type %q", slot.ErrInvalidArgument, req.Type))
	}
}

func (h *Handler) keepalive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				return
			}
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, resp Response) error {
	payload, err := encodeResponse(resp)
	if err != nil {
		return err
	}
	h.recordFrame("out", resp.Type)
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// frameLabel keeps client-chosen type strings out of metric labels.
func frameLabel(frameType string) string {
	switch frameType {
	case TypeSelect, TypeWrite, TypeRead, TypePing, TypeClose:
		return frameType
	default:
		return "unknown"
	}
}

func (h *Handler) recordFrame(direction, frameType string) {
	if h.metrics != nil {
		h.metrics.RecordWSFrame(direction, frameType)
	}
}
