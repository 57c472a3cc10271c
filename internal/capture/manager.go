// Package capture owns the per-user capture session lifecycle and drives the
// analysis pipeline: frame in, inference, state merge, alerts out.
package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arielwu/deskpulse/internal/models"
	"github.com/arielwu/deskpulse/internal/notify"
	"github.com/arielwu/deskpulse/internal/utils"
)

// Analyzer runs vision inference on one frame.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (models.RawReading, error)
}

// StateStore is the slice of the state store the manager needs.
type StateStore interface {
	Merge(userID string, r models.RawReading) (models.UserState, []models.Alert)
	Remove(userID string)
}

// HistorySink records delivered alerts.
type HistorySink interface {
	Append(userID, eventType, content string, severity int) models.InteractionEvent
}

// ArtifactStore holds the frame on disk for the duration of one cycle.
type ArtifactStore interface {
	Persist(userID string, frame []byte) (string, error)
	Delete(path string) error
}

// Uploader optionally ships frames to durable storage.
type Uploader interface {
	Enabled() bool
	UploadFrame(ctx context.Context, userID string, frame []byte) (string, error)
}

type session struct {
	mu            sync.Mutex
	userID        string
	state         string
	connectedAt   time.Time
	frameCount    int64
	lastCaptureAt time.Time
	lastStart     time.Time // when the last inference was admitted
	latestFrame   []byte
	cancelTicks   context.CancelFunc

	inFlight atomic.Bool
}

func (s *session) snapshot() models.CaptureSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CaptureSession{
		UserID:        s.userID,
		State:         s.state,
		ConnectedAt:   s.connectedAt,
		FrameCount:    s.frameCount,
		LastCaptureAt: s.lastCaptureAt,
		InFlight:      s.inFlight.Load(),
	}
}

func (s *session) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == models.SessionClosed
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	gateway   Analyzer
	states    StateStore
	hist      HistorySink
	artifacts ArtifactStore
	uploader  Uploader
	notifier  notify.Notifier
	log       *logrus.Logger

	cadence     time.Duration
	minInterval time.Duration

	now func() time.Time
}

func NewManager(gateway Analyzer, states StateStore, hist HistorySink, artifacts ArtifactStore,
	uploader Uploader, notifier notify.Notifier, log *logrus.Logger,
	cadence, minInterval time.Duration) *Manager {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Manager{
		sessions:    make(map[string]*session),
		gateway:     gateway,
		states:      states,
		hist:        hist,
		artifacts:   artifacts,
		uploader:    uploader,
		notifier:    notifier,
		log:         log,
		cadence:     cadence,
		minInterval: minInterval,
		now:         time.Now,
	}
}

// Join opens the user's session. Each user has at most one; joining again
// while one is open returns the existing session unchanged.
func (m *Manager) Join(userID string) (models.CaptureSession, error) {
	const op = "CaptureManager.Join"
	if userID == "" {
		return models.CaptureSession{}, utils.E(utils.CodeInvalidArgument, op, "user id is required", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s.snapshot(), nil
	}
	s := &session{
		userID:      userID,
		state:       models.SessionJoining,
		connectedAt: m.now(),
	}
	m.sessions[userID] = s
	m.log.WithField("user_id", userID).Info("session joined")
	return s.snapshot(), nil
}

// Snapshot reports the session's current lifecycle state.
func (m *Manager) Snapshot(userID string) (models.CaptureSession, error) {
	const op = "CaptureManager.Snapshot"
	s, err := m.get(op, userID)
	if err != nil {
		return models.CaptureSession{}, err
	}
	return s.snapshot(), nil
}

// SubmitFrame stores the client's newest frame; the tick loop picks up
// whatever is freshest when it fires.
func (m *Manager) SubmitFrame(userID string, frame []byte) error {
	const op = "CaptureManager.SubmitFrame"
	if len(frame) == 0 {
		return utils.E(utils.CodeInvalidArgument, op, "empty frame", nil)
	}
	s, err := m.get(op, userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == models.SessionClosed {
		return utils.E(utils.CodeNotFound, op, "session closed", nil)
	}
	s.latestFrame = frame
	s.frameCount++
	return nil
}

// StartCapture begins the scheduled tick loop for the user's session.
func (m *Manager) StartCapture(ctx context.Context, userID string) (models.CaptureSession, error) {
	const op = "CaptureManager.StartCapture"
	s, err := m.get(op, userID)
	if err != nil {
		return models.CaptureSession{}, err
	}

	s.mu.Lock()
	switch s.state {
	case models.SessionClosed:
		s.mu.Unlock()
		return models.CaptureSession{}, utils.E(utils.CodeNotFound, op, "session closed", nil)
	case models.SessionCapturing:
		s.mu.Unlock()
		return s.snapshot(), nil
	}
	// The loop outlives the request that started it.
	tickCtx, cancel := context.WithCancel(context.Background())
	s.state = models.SessionCapturing
	s.cancelTicks = cancel
	s.mu.Unlock()

	go m.runTicks(tickCtx, s)
	_ = m.notifier.PublishStatus(ctx, userID, models.SessionCapturing)
	m.log.WithField("user_id", userID).Info("capture started")
	return s.snapshot(), nil
}

// StopCapture pauses the tick loop; the session stays open.
func (m *Manager) StopCapture(ctx context.Context, userID string) (models.CaptureSession, error) {
	const op = "CaptureManager.StopCapture"
	s, err := m.get(op, userID)
	if err != nil {
		return models.CaptureSession{}, err
	}

	s.mu.Lock()
	if s.state == models.SessionClosed {
		s.mu.Unlock()
		return models.CaptureSession{}, utils.E(utils.CodeNotFound, op, "session closed", nil)
	}
	if s.cancelTicks != nil {
		s.cancelTicks()
		s.cancelTicks = nil
	}
	s.state = models.SessionReady
	s.mu.Unlock()

	_ = m.notifier.PublishStatus(ctx, userID, models.SessionReady)
	m.log.WithField("user_id", userID).Info("capture stopped")
	return s.snapshot(), nil
}

// Close tears the session down: the tick loop stops, the user's behavioral
// state is dropped, and any in-flight inference result is discarded when it
// lands. Interaction history survives the close.
func (m *Manager) Close(ctx context.Context, userID string) error {
	const op = "CaptureManager.Close"
	s, err := m.get(op, userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.cancelTicks != nil {
		s.cancelTicks()
		s.cancelTicks = nil
	}
	s.state = models.SessionClosed
	s.latestFrame = nil
	s.mu.Unlock()

	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()

	m.states.Remove(userID)
	_ = m.notifier.PublishStatus(ctx, userID, models.SessionClosed)
	m.log.WithField("user_id", userID).Info("session closed")
	return nil
}

// Detect runs one on-demand analysis for the user. It obeys the same
// single-flight and min-interval rules as scheduled ticks, but rejections
// surface as errors instead of silent skips.
func (m *Manager) Detect(ctx context.Context, userID string, frame []byte) (models.AnalysisResult, error) {
	const op = "CaptureManager.Detect"
	if userID == "" {
		return models.AnalysisResult{}, utils.E(utils.CodeInvalidArgument, op, "user id is required", nil)
	}
	if len(frame) == 0 {
		return models.AnalysisResult{}, utils.E(utils.CodeInvalidArgument, op, "empty frame", nil)
	}

	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		// On-demand analysis works without an open session; there is just
		// no pacing state to consult.
		return m.runPipeline(ctx, op, userID, nil, frame)
	}
	return m.process(ctx, op, s, frame)
}

func (m *Manager) get(op, userID string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "no session for user", nil)
	}
	return s, nil
}

func (m *Manager) runTicks(ctx context.Context, s *session) {
	ticker := time.NewTicker(m.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			frame := s.latestFrame
			s.mu.Unlock()
			if len(frame) == 0 {
				continue
			}
			if _, err := m.process(ctx, "CaptureManager.tick", s, frame); err != nil {
				if utils.IsCode(err, utils.CodeTooManyRequests) {
					continue // previous cycle still running or too soon; skip quietly
				}
				m.log.WithError(err).WithField("user_id", s.userID).Warn("capture cycle failed")
			}
		}
	}
}

// process admits one cycle through the single-flight and min-interval gates,
// then runs the pipeline.
func (m *Manager) process(ctx context.Context, op string, s *session, frame []byte) (models.AnalysisResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return models.AnalysisResult{}, utils.E(utils.CodeTooManyRequests, op, "analysis already in flight", nil)
	}
	defer s.inFlight.Store(false)

	now := m.now()
	s.mu.Lock()
	if !s.lastStart.IsZero() && now.Sub(s.lastStart) < m.minInterval {
		s.mu.Unlock()
		return models.AnalysisResult{}, utils.E(utils.CodeTooManyRequests, op, "analysis requested too soon", nil)
	}
	s.lastStart = now
	s.mu.Unlock()

	res, err := m.runPipeline(ctx, op, s.userID, s, frame)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	s.mu.Lock()
	s.lastCaptureAt = now
	s.mu.Unlock()
	return res, nil
}

func (m *Manager) runPipeline(ctx context.Context, op, userID string, s *session, frame []byte) (models.AnalysisResult, error) {
	path, err := m.artifacts.Persist(userID, frame)
	if err != nil {
		return models.AnalysisResult{}, utils.E(utils.CodeInternal, op, "could not persist frame", err)
	}
	defer func() {
		if err := m.artifacts.Delete(path); err != nil {
			m.log.WithError(err).WithField("path", path).Warn("artifact cleanup failed")
		}
	}()

	var imageURL string
	if m.uploader != nil && m.uploader.Enabled() {
		url, err := m.uploader.UploadFrame(ctx, userID, frame)
		if err != nil {
			m.log.WithError(err).WithField("user_id", userID).Warn("frame upload failed")
		} else {
			imageURL = url
		}
	}

	reading, err := m.gateway.Analyze(ctx, frame)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	// The session may have closed while inference ran; its result must not
	// resurrect the user's state.
	if s != nil && s.closed() {
		m.log.WithField("user_id", userID).Debug("discarding result for closed session")
		return models.AnalysisResult{}, utils.E(utils.CodeNotFound, op, "session closed", nil)
	}

	state, alerts := m.states.Merge(userID, reading)
	for _, a := range alerts {
		m.hist.Append(userID, models.EventAlert, a.Message, a.Severity)
	}

	res := models.AnalysisResult{
		Timestamp: m.now(),
		State:     state,
		Alerts:    alerts,
		ImageURL:  imageURL,
	}
	_ = m.notifier.PublishAlerts(ctx, userID, alerts)
	_ = m.notifier.PublishAnalysis(ctx, userID, res)
	return res, nil
}
