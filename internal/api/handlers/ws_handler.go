package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/arielwu/deskpulse/internal/capture"
	"github.com/arielwu/deskpulse/internal/notify"
)

// WSHandler runs the realtime session channel: signaling and frames inbound,
// alerts and analysis results outbound via the redis subscription.
type WSHandler struct {
	manager  *capture.Manager
	notifier *notify.RedisNotifier // nil when redis is disabled
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(manager *capture.Manager, notifier *notify.RedisNotifier, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		manager:  manager,
		notifier: notifier,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

type wsInbound struct {
	Type      string          `json:"type"` // offer|ice_candidate|frame|capture_start|capture_stop|close
	SDP       string          `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Frame     string          `json:"frame,omitempty"` // base64 jpeg
}

type wsOutbound struct {
	Type    string          `json:"type"`
	SDP     string          `json:"sdp,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (h *WSHandler) SessionWS(c *gin.Context) {
	userID, ok := requireOwnUser(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	if _, err := h.manager.Join(userID); err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("ws join failed")
		return
	}

	// Disconnecting tears the session down; the client reconnects by joining
	// again.
	defer func() {
		if err := h.manager.Close(context.Background(), userID); err != nil {
			h.log.WithError(err).WithField("user_id", userID).Debug("ws close")
		}
	}()

	var writeMu sync.Mutex
	send := func(v wsOutbound) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(v); err != nil {
			h.log.WithError(err).WithField("user_id", userID).Debug("ws write failed")
		}
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if h.notifier != nil {
		sub := h.notifier.Subscribe(ctx, userID)
		defer sub.Close()
		go func() {
			for msg := range sub.Channel() {
				send(wsOutbound{
					Type:    channelKind(msg.Channel),
					Payload: json.RawMessage(msg.Payload),
				})
			}
		}()
	}

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).WithField("user_id", userID).Debug("ws read failed")
			}
			return
		}

		switch in.Type {
		case "offer":
			answer, err := h.manager.Answer(userID, in.SDP)
			if err != nil {
				send(wsOutbound{Type: "error", Message: err.Error()})
				continue
			}
			send(wsOutbound{Type: "answer", SDP: answer})

		case "ice_candidate":
			// Signaling-only mode: the server holds no peer connection, so
			// candidates are acknowledged and dropped.
			h.log.WithField("user_id", userID).Debug("ice candidate received")

		case "frame":
			frame, err := decodeFrame(in.Frame)
			if err != nil {
				send(wsOutbound{Type: "error", Message: "frame must be base64"})
				continue
			}
			if err := h.manager.SubmitFrame(userID, frame); err != nil {
				send(wsOutbound{Type: "error", Message: err.Error()})
			}

		case "capture_start":
			if _, err := h.manager.StartCapture(ctx, userID); err != nil {
				send(wsOutbound{Type: "error", Message: err.Error()})
			}

		case "capture_stop":
			if _, err := h.manager.StopCapture(ctx, userID); err != nil {
				send(wsOutbound{Type: "error", Message: err.Error()})
			}

		case "close":
			return

		default:
			send(wsOutbound{Type: "error", Message: "unknown message type"})
		}
	}
}

// channelKind maps "user:<id>:alerts" to "alerts".
func channelKind(channel string) string {
	parts := strings.Split(channel, ":")
	return parts[len(parts)-1]
}
