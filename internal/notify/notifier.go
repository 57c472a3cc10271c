// Package notify fans analysis results and alerts out over redis pub/sub so
// websocket handlers on any instance can forward them to the client.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/arielwu/deskpulse/internal/models"
)

type Notifier interface {
	PublishAlerts(ctx context.Context, userID string, alerts []models.Alert) error
	PublishAnalysis(ctx context.Context, userID string, res models.AnalysisResult) error
	PublishStatus(ctx context.Context, userID, status string) error
}

func AlertChannel(userID string) string    { return fmt.Sprintf("user:%s:alerts", userID) }
func AnalysisChannel(userID string) string { return fmt.Sprintf("user:%s:analysis", userID) }
func StatusChannel(userID string) string   { return fmt.Sprintf("user:%s:status", userID) }

type RedisNotifier struct {
	rdb *redis.Client
	log *logrus.Logger
}

func NewRedisNotifier(rdb *redis.Client, log *logrus.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, log: log}
}

func (n *RedisNotifier) PublishAlerts(ctx context.Context, userID string, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	return n.publish(ctx, AlertChannel(userID), alerts)
}

func (n *RedisNotifier) PublishAnalysis(ctx context.Context, userID string, res models.AnalysisResult) error {
	return n.publish(ctx, AnalysisChannel(userID), res)
}

func (n *RedisNotifier) PublishStatus(ctx context.Context, userID, status string) error {
	return n.publish(ctx, StatusChannel(userID), map[string]string{"status": status})
}

func (n *RedisNotifier) publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.rdb.Publish(ctx, channel, data).Err(); err != nil {
		n.log.WithError(err).WithField("channel", channel).Warn("publish failed")
		return err
	}
	return nil
}

// Subscribe returns a pub/sub subscription covering every channel for the
// given user. The caller owns closing it.
func (n *RedisNotifier) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return n.rdb.Subscribe(ctx, AlertChannel(userID), AnalysisChannel(userID), StatusChannel(userID))
}

// Nop is used when redis is not configured; the server still works, it just
// cannot push realtime updates.
type Nop struct{}

func (Nop) PublishAlerts(context.Context, string, []models.Alert) error          { return nil }
func (Nop) PublishAnalysis(context.Context, string, models.AnalysisResult) error { return nil }
func (Nop) PublishStatus(context.Context, string, string) error                  { return nil }
