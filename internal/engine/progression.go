package engine

import (
	"math"

	"github.com/tatianab/cyber-clicker/internal/models"
)

// Threshold is the experience needed to leave level.
func (e *Engine) Threshold(level int) float64 {
	return float64(level) * e.rules.LevelThresholdStep
}

// CheckLevelUp converts experience into levels. A single large gain can
// cross several thresholds; the returned slice holds each new level reached,
// in order. Levels stop at models.MaxLevel.
func (e *Engine) CheckLevelUp(st models.GameState) (models.GameState, []int) {
	if e.rules.LevelThresholdStep <= 0 || st.Level < 1 || st.Level >= models.MaxLevel ||
		st.Experience < e.Threshold(st.Level) {
		return st, nil
	}

	k := min(e.levelsCrossed(st.Level, st.Experience), models.MaxLevel-st.Level)
	if k == 0 {
		return st, nil
	}

	st = st.Clone()
	reached := make([]int, k)
	for i := range reached {
		reached[i] = st.Level + i + 1
	}
	st.Experience -= e.thresholdSum(st.Level, k)
	st.Level += k
	st.ClickPower += float64(k) * e.rules.LevelUpClickBonus
	if st.Experience < 0 {
		st.Experience = 0
	}
	return st, reached
}

// thresholdSum is the experience needed to climb k levels starting at level.
func (e *Engine) thresholdSum(level, k int) float64 {
	l, n := float64(level), float64(k)
	return e.rules.LevelThresholdStep * (n*l + n*(n-1)/2)
}

// levelsCrossed is the largest k with thresholdSum(level, k) <= xp, capped at
// models.MaxLevel.
func (e *Engine) levelsCrossed(level int, xp float64) int {
	b := 2*float64(level) - 1
	kf := math.Floor((math.Sqrt(b*b+8*xp/e.rules.LevelThresholdStep) - b) / 2)
	if kf >= models.MaxLevel {
		return models.MaxLevel
	}
	k := max(int(kf), 0)
	// The square root can be off by one either way.
	for k > 0 && e.thresholdSum(level, k) > xp {
		k--
	}
	for k < models.MaxLevel && e.thresholdSum(level, k+1) <= xp {
		k++
	}
	return k
}

// Progress is the fraction of the current level's threshold already earned.
func (e *Engine) Progress(st models.GameState) float64 {
	t := e.Threshold(st.Level)
	if t <= 0 {
		return 0
	}
	p := st.Experience / t
	if p > 1 {
		return 1
	}
	return p
}
