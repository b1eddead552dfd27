package http

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/msgslot/internal/shared/id"
	"github.com/GriffinCanCode/msgslot/internal/slot"
)

// Response headers set on raw reads.
const (
	HeaderChannel       = "X-Channel"
	HeaderMessageLength = "X-Message-Length"
)

// SelectRequest is the body of PUT /handles/:handle/channel.
type SelectRequest struct {
	Channel *int64 `json:"channel"`
}

// Open opens a new handle on a slot
func (h *Handlers) Open(c *gin.Context) {
	slotID, err := ParseSlot(c.Param("slot"))
	if err != nil {
		RespondError(c, err)
		return
	}

	sess, err := h.device.Open(slotID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"handle":  sess.Handle().String(),
		"slot":    sess.SlotID(),
	})
}

// Describe reports the state of an open handle
func (h *Handlers) Describe(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	resp := gin.H{
		"success":  true,
		"handle":   sess.Handle().String(),
		"slot":     sess.SlotID(),
		"channel":  sess.Channel(),
		"selected": sess.Selected(),
	}
	if at, err := sess.Handle().OpenedAt(); err == nil {
		resp["opened_at"] = at
	}
	c.JSON(http.StatusOK, resp)
}

// SelectChannel binds a handle to a channel
func (h *Handlers) SelectChannel(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, fmt.Errorf("%w: %v", slot.ErrInvalidArgument, err))
		return
	}
	if req.Channel == nil || *req.Channel < 0 || *req.Channel > math.MaxUint32 {
		RespondError(c, fmt.Errorf("%w: channel must be in [1, %d]", slot.ErrInvalidArgument, slot.MaxChannels))
		return
	}

	if err := sess.SelectChannel(uint32(*req.Channel)); err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"channel": sess.Channel(),
	})
}

// Write stores the raw request body on the selected channel
func (h *Handlers) Write(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	// One byte past the limit is enough to report MessageTooLarge.
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, slot.MaxMessageSize+1))
	if err != nil {
		RespondError(c, fmt.Errorf("%w: reading body: %v", slot.ErrInvalidArgument, err))
		return
	}

	n, err := sess.Write(payload)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.logger.Debug("message written",
		zap.String("handle", sess.Handle().String()),
		zap.Uint32("slot", sess.SlotID()),
		zap.Uint32("channel", sess.Channel()),
		zap.Int("bytes", n))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"written": n,
	})
}

// Read returns the selected channel's message as raw bytes
func (h *Handlers) Read(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	capacity := slot.MaxMessageSize
	if raw := c.Query("capacity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondError(c, fmt.Errorf("%w: capacity %q", slot.ErrInvalidArgument, raw))
			return
		}
		capacity = n
	}

	msg, err := sess.Read(capacity)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.Header(HeaderChannel, strconv.FormatUint(uint64(sess.Channel()), 10))
	c.Header(HeaderMessageLength, strconv.Itoa(msg.Len()))
	c.Data(http.StatusOK, "application/octet-stream", msg)
}

// Close releases a handle
func (h *Handlers) Close(c *gin.Context) {
	handle, err := parseHandle(c.Param("handle"))
	if err != nil {
		RespondError(c, err)
		return
	}

	if err := h.device.Close(handle); err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"handle":  handle.String(),
	})
}

func (h *Handlers) session(c *gin.Context) (*slot.Session, bool) {
	handle, err := parseHandle(c.Param("handle"))
	if err != nil {
		RespondError(c, err)
		return nil, false
	}
	sess, err := h.device.Lookup(handle)
	if err != nil {
		RespondError(c, err)
		return nil, false
	}
	return sess, true
}

func parseHandle(raw string) (id.HandleID, error) {
	handle, err := id.ParseHandleID(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", slot.ErrUnknownHandle, err)
	}
	return handle, nil
}

// ParseSlot parses a slot id path parameter. Range checks are left to the
// device.
func ParseSlot(raw string) (uint32, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: slot %q", slot.ErrInvalidArgument, raw)
	}
	return uint32(v), nil
}
