package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arielwu/deskpulse/internal/history"
	"github.com/arielwu/deskpulse/internal/utils"
)

type HistoryHandler struct {
	hist *history.Log
}

func NewHistoryHandler(hist *history.Log) *HistoryHandler {
	return &HistoryHandler{hist: hist}
}

// List returns the user's interaction history, newest first. Optional query
// params: type (voice|alert|action) and limit.
func (h *HistoryHandler) List(c *gin.Context) {
	userID, ok := requireOwnUser(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(c, utils.E(utils.CodeInvalidArgument, "HistoryHandler.List", "invalid limit", err))
			return
		}
		limit = n
	}

	events := h.hist.List(userID, c.Query("type"), limit)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "events": events})
}

type appendEventRequest struct {
	EventType string `json:"event_type" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Severity  int    `json:"severity"`
}

// AppendEvent records a client-originated event, e.g. a voice exchange or a
// user action on an alert.
func (h *HistoryHandler) AppendEvent(c *gin.Context) {
	userID, ok := requireOwnUser(c)
	if !ok {
		return
	}

	var req appendEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "HistoryHandler.AppendEvent", "invalid request body", err))
		return
	}

	ev := h.hist.Append(userID, req.EventType, req.Content, req.Severity)
	c.JSON(http.StatusCreated, ev)
}

// Report returns the daily digest. The date query param defaults to today.
func (h *HistoryHandler) Report(c *gin.Context) {
	userID, ok := requireOwnUser(c)
	if !ok {
		return
	}

	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "HistoryHandler.Report", "date must be YYYY-MM-DD", err))
			return
		}
		date = parsed
	}

	c.JSON(http.StatusOK, h.hist.Report(userID, date))
}
