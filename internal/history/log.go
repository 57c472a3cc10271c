// Package history keeps a bounded in-memory interaction log per user:
// voice exchanges, delivered alerts, and user actions.
package history

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arielwu/deskpulse/internal/models"
)

const (
	recentAlertCount = 5
	recentVoiceCount = 5
)

type Log struct {
	mu     sync.Mutex
	events map[string][]models.InteractionEvent // chronological per user

	capPerUser int
	voiceCap   int

	now func() time.Time
}

func NewLog(capPerUser, voiceCap int) *Log {
	return &Log{
		events:     make(map[string][]models.InteractionEvent),
		capPerUser: capPerUser,
		voiceCap:   voiceCap,
		now:        time.Now,
	}
}

// Append records an event and enforces the per-user bounds. Unknown event
// types are treated as actions; severity is clamped to the valid range.
func (l *Log) Append(userID, eventType, content string, severity int) models.InteractionEvent {
	switch eventType {
	case models.EventVoice, models.EventAlert, models.EventAction:
	default:
		eventType = models.EventAction
	}
	if severity < models.SeverityLow {
		severity = models.SeverityLow
	}
	if severity > models.SeverityHigh {
		severity = models.SeverityHigh
	}

	ev := models.InteractionEvent{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		EventType: eventType,
		Content:   content,
		Severity:  severity,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	evs := append(l.events[userID], ev)
	evs = trimVoice(evs, l.voiceCap)
	evs = trimToCap(evs, l.capPerUser)
	l.events[userID] = evs
	return ev
}

// List returns the user's events newest first, optionally filtered by event
// type. A non-positive limit means no limit.
func (l *Log) List(userID, eventType string, limit int) []models.InteractionEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.InteractionEvent
	for _, ev := range l.events[userID] {
		if eventType != "" && ev.EventType != eventType {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Clear drops the user's entire history.
func (l *Log) Clear(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.events, userID)
}

// Report summarizes one calendar day of the user's history.
func (l *Log) Report(userID string, date time.Time) models.Report {
	l.mu.Lock()
	defer l.mu.Unlock()

	rep := models.Report{
		UserID:           userID,
		Date:             date.Format("2006-01-02"),
		GeneratedAt:      l.now(),
		CountsByType:     make(map[string]int),
		CountsBySeverity: make(map[int]int),
	}

	y, m, d := date.Date()
	actionsByHour := make(map[int]int)
	var alerts, voice []models.InteractionEvent

	for _, ev := range l.events[userID] {
		ts := ev.Timestamp.In(date.Location())
		ey, em, ed := ts.Date()
		if ey != y || em != m || ed != d {
			continue
		}
		rep.TotalEvents++
		rep.CountsByType[ev.EventType]++
		rep.CountsBySeverity[ev.Severity]++
		switch ev.EventType {
		case models.EventAlert:
			alerts = append(alerts, ev)
		case models.EventVoice:
			voice = append(voice, ev)
		case models.EventAction:
			actionsByHour[ts.Hour()]++
		}
	}

	rep.RecentAlerts = lastN(alerts, recentAlertCount)
	rep.RecentVoice = lastN(voice, recentVoiceCount)
	for hour, n := range actionsByHour {
		if n > rep.PeakActionCount || (n == rep.PeakActionCount && hour < rep.PeakActionHour) {
			rep.PeakActionHour = hour
			rep.PeakActionCount = n
		}
	}
	return rep
}

// trimVoice evicts the oldest voice events once their count exceeds the
// voice cap. Other event types are untouched.
func trimVoice(evs []models.InteractionEvent, max int) []models.InteractionEvent {
	voice := 0
	for _, ev := range evs {
		if ev.EventType == models.EventVoice {
			voice++
		}
	}
	if voice <= max {
		return evs
	}
	drop := voice - max
	out := evs[:0]
	for _, ev := range evs {
		if drop > 0 && ev.EventType == models.EventVoice {
			drop--
			continue
		}
		out = append(out, ev)
	}
	return out
}

// trimToCap bounds the log while never dropping a high-severity event:
// all high entries survive, and the remaining slots go to the most recent
// lower-severity entries. Order stays chronological.
func trimToCap(evs []models.InteractionEvent, max int) []models.InteractionEvent {
	if len(evs) <= max {
		return evs
	}

	lowerSlots := max
	for _, ev := range evs {
		if ev.Severity == models.SeverityHigh {
			lowerSlots--
		}
	}

	// Walk backwards so the newest lower-severity events claim the slots.
	keep := make([]bool, len(evs))
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Severity == models.SeverityHigh {
			keep[i] = true
		} else if lowerSlots > 0 {
			keep[i] = true
			lowerSlots--
		}
	}

	out := evs[:0]
	for i, ev := range evs {
		if keep[i] {
			out = append(out, ev)
		}
	}
	return out
}

// lastN returns the newest n events, newest first.
func lastN(evs []models.InteractionEvent, n int) []models.InteractionEvent {
	if len(evs) > n {
		evs = evs[len(evs)-n:]
	}
	out := make([]models.InteractionEvent, len(evs))
	for i, ev := range evs {
		out[len(evs)-1-i] = ev
	}
	return out
}
