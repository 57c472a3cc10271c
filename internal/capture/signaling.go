package capture

import (
	"fmt"
	"strings"
	"time"

	"github.com/arielwu/deskpulse/internal/models"
	"github.com/arielwu/deskpulse/internal/utils"
)

// Answer accepts the client's SDP offer and returns the server's answer.
// Accepting the offer moves the session from joining to ready.
func (m *Manager) Answer(userID, offer string) (string, error) {
	const op = "CaptureManager.Answer"
	if strings.TrimSpace(offer) == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "empty offer", nil)
	}
	s, err := m.get(op, userID)
	if err != nil {
		return "", err
	}

	answer := buildAnswer(offer)

	s.mu.Lock()
	if s.state == models.SessionJoining {
		s.state = models.SessionReady
	}
	s.mu.Unlock()

	m.log.WithField("user_id", userID).Info("offer answered")
	return answer, nil
}

// buildAnswer mirrors the offer's media sections back in a minimal answer.
// The server never originates media, so every m-line is accepted recvonly.
func buildAnswer(offer string) string {
	var b strings.Builder
	b.WriteString("v=0\r\n")
	fmt.Fprintf(&b, "o=- %d 2 IN IP4 127.0.0.1\r\n", time.Now().UnixNano())
	b.WriteString("s=-\r\n")
	b.WriteString("t=0 0\r\n")

	for _, line := range strings.Split(offer, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "m=") {
			b.WriteString(line)
			b.WriteString("\r\n")
			b.WriteString("a=recvonly\r\n")
			b.WriteString("a=end-of-candidates\r\n")
		}
	}
	return b.String()
}
