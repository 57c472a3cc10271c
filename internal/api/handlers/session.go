package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arielwu/deskpulse/internal/capture"
	"github.com/arielwu/deskpulse/internal/utils"
)

type SessionHandler struct {
	manager *capture.Manager
}

func NewSessionHandler(manager *capture.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// Join opens (or returns) the caller's capture session.
func (h *SessionHandler) Join(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	snap, err := h.manager.Join(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Get returns the session's lifecycle snapshot.
func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := requireOwnUser(c)
	if !ok {
		return
	}

	snap, err := h.manager.Snapshot(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type offerRequest struct {
	SDP string `json:"sdp" binding:"required"`
}

// Offer accepts the client's SDP offer and returns the answer.
func (h *SessionHandler) Offer(c *gin.Context) {
	userID, ok := requireOwnUser(c)
	if !ok {
		return
	}

	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Offer", "invalid request body", err))
		return
	}

	answer, err := h.manager.Answer(userID, req.SDP)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sdp": answer})
}

func (h *SessionHandler) StartCapture(c *gin.Context) {
	userID, ok := requireOwnUser(c)
	if !ok {
		return
	}

	snap, err := h.manager.StartCapture(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) StopCapture(c *gin.Context) {
	userID, ok := requireOwnUser(c)
	if !ok {
		return
	}

	snap, err := h.manager.StopCapture(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) Close(c *gin.Context) {
	userID, ok := requireOwnUser(c)
	if !ok {
		return
	}

	if err := h.manager.Close(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

type detectRequest struct {
	Image string `json:"image" binding:"required"` // base64, data URL prefix allowed
}

// Detect runs one on-demand analysis of an uploaded frame.
func (h *SessionHandler) Detect(c *gin.Context) {
	userID, ok := requireOwnUser(c)
	if !ok {
		return
	}

	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Detect", "invalid request body", err))
		return
	}

	frame, err := decodeFrame(req.Image)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Detect", "image must be base64", err))
		return
	}

	res, err := h.manager.Detect(c.Request.Context(), userID, frame)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// decodeFrame accepts raw base64 or a browser data URL.
func decodeFrame(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 {
		s = s[i+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}
