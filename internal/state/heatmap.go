package state

import (
	"math"
	"math/rand"
	"strings"

	"github.com/arielwu/deskpulse/internal/models"
)

// The screen is a 3x3 grid in normalized coordinates; each region maps to
// its center point.
var regionCenters = [3]float64{0.17, 0.5, 0.83}

// regionCenter maps a free-form gaze label onto a grid center. Vision models
// answer in English or Chinese depending on the prompt language, so both
// token sets are recognized. Anything unrecognized lands in the center.
func regionCenter(gaze string) (float64, float64) {
	g := strings.ToLower(gaze)

	row, col := 1, 1
	switch {
	case containsAny(g, "top", "upper", "上"):
		row = 0
	case containsAny(g, "bottom", "lower", "下"):
		row = 2
	}
	switch {
	case containsAny(g, "left", "左"):
		col = 0
	case containsAny(g, "right", "右"):
		col = 2
	}
	return regionCenters[col], regionCenters[row]
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// synthesizeHeatmap builds a point cloud around the gaze region center: the
// center point itself at full intensity, plus n jittered neighbors whose
// intensity falls off with distance from the center. All coordinates and
// intensities are clamped to [0, 1].
func synthesizeHeatmap(gaze string, score float64, n int, radius float64) []models.HeatmapPoint {
	cx, cy := regionCenter(gaze)
	base := clamp01(score / 100)

	out := make([]models.HeatmapPoint, 0, n+1)
	out = append(out, models.HeatmapPoint{cx, cy, base})

	for i := 0; i < n; i++ {
		d := rand.Float64() * radius
		angle := rand.Float64() * 2 * math.Pi
		x := clamp01(cx + d*math.Cos(angle))
		y := clamp01(cy + d*math.Sin(angle))
		intensity := clamp01(base * (1 - d/radius))
		out = append(out, models.HeatmapPoint{x, y, intensity})
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
