// Package state owns the per-user behavioral state. Every mutation goes
// through Merge; nothing else writes a UserState.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/arielwu/deskpulse/config"
	"github.com/arielwu/deskpulse/internal/models"
)

// Evaluator turns a freshly merged state into alerts. Running it inside
// Merge keeps the merge-plus-evaluate transition atomic per user.
type Evaluator interface {
	Evaluate(st *models.UserState, now time.Time) []models.Alert
}

type Store struct {
	mu    sync.Mutex
	users map[string]*models.UserState

	th         config.Thresholds
	heatPoints int
	heatRadius float64
	eval       Evaluator

	now func() time.Time
}

func NewStore(cfg *config.Config, eval Evaluator) *Store {
	return &Store{
		users:      make(map[string]*models.UserState),
		th:         cfg.Thresholds,
		heatPoints: cfg.HeatmapPoints,
		heatRadius: cfg.HeatmapRadius,
		eval:       eval,
		now:        time.Now,
	}
}

// Merge folds a reading into the user's state, evaluates alerts, and
// returns a snapshot plus whatever alerts the transition produced. Pure
// in-memory work; it never blocks.
func (s *Store) Merge(userID string, r models.RawReading) (models.UserState, []models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st, ok := s.users[userID]
	if !ok {
		st = newUserState(userID, now)
		s.users[userID] = st
	}
	elapsed := now.Sub(st.LastUpdate)
	if elapsed < 0 {
		elapsed = 0
	}

	// Emotion: same label accumulates, a label change restarts the counter.
	if r.Emotion.Label == st.Emotion.Current {
		st.Emotion.DurationSec += elapsed.Seconds()
	} else {
		st.Emotion.Current = r.Emotion.Label
		st.Emotion.DurationSec = elapsed.Seconds()
	}
	st.Emotion.Confidence = r.Emotion.Confidence

	// Posture: sitting time accumulates regardless of the reading.
	st.Posture.NeckAngle = r.Posture.NeckAngle
	st.Posture.ScreenDistance = r.Posture.ScreenDistance
	st.Posture.SitDurationMin += elapsed.Minutes()

	// Attention: instantaneous score, running slot average, fresh heatmap.
	st.Attention.Current = r.Attention.Score
	slot := timeSlotKey(now)
	if prev, ok := st.Attention.TimeSlots[slot]; ok {
		st.Attention.TimeSlots[slot] = (prev + r.Attention.Score) / 2
	} else {
		st.Attention.TimeSlots[slot] = r.Attention.Score
	}
	st.Attention.Heatmap = synthesizeHeatmap(r.Attention.GazeRegion, r.Attention.Score, s.heatPoints, s.heatRadius)

	var alerts []models.Alert
	if s.eval != nil {
		alerts = s.eval.Evaluate(st, now)
	}

	// The reset runs after evaluation so the sit-duration rule sees the
	// accumulated value once, then the next cycle counts up from zero.
	if st.Posture.SitDurationMin >= s.th.SitDurationMin+s.th.SitResetGraceMin {
		st.Posture.SitDurationMin = 0
	}

	st.LastUpdate = now
	return st.Clone(), alerts
}

func (s *Store) Get(userID string) (models.UserState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.users[userID]
	if !ok {
		return models.UserState{}, false
	}
	return st.Clone(), true
}

// Remove drops the user's state; called when their session closes.
func (s *Store) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}

func newUserState(userID string, now time.Time) *models.UserState {
	return &models.UserState{
		UserID: userID,
		Emotion: models.EmotionState{
			Current: "neutral",
		},
		Posture: models.PostureState{
			NeckAngle:      25,
			ScreenDistance: 60,
		},
		Attention: models.AttentionState{
			Current:   60,
			TimeSlots: make(map[string]float64),
		},
		LastUpdate: now,
	}
}

// timeSlotKey buckets a timestamp into its 5-minute window within the hour,
// e.g. "15-20min".
func timeSlotKey(now time.Time) string {
	idx := now.Minute() / 5
	return fmt.Sprintf("%d-%dmin", idx*5, idx*5+5)
}
