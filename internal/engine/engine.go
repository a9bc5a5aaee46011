// Package engine holds the pure game rules: the economy (clicks, passive
// ticks, upgrade purchases), level progression and achievement derivation.
//
// Every function takes a GameState by value and returns a new one; callers
// own ordering and persistence.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/tatianab/cyber-clicker/internal/models"
)

// Rules are the tunable constants of the economy.
type Rules struct {
	// ExperienceRatio is the experience earned per unit of currency earned.
	ExperienceRatio float64
	// LevelThresholdStep is multiplied by the current level to get the
	// experience needed for the next one.
	LevelThresholdStep float64
	// LevelUpClickBonus is added to click power on every level-up.
	LevelUpClickBonus float64
}

// DefaultRules returns the standard tuning.
func DefaultRules() Rules {
	return Rules{
		ExperienceRatio:    0.1,
		LevelThresholdStep: 100,
		LevelUpClickBonus:  1,
	}
}

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownUpgrade    = errors.New("unknown upgrade")
)

// PurchaseError explains a rejected purchase. It matches ErrInsufficientFunds
// or ErrUnknownUpgrade with errors.Is.
type PurchaseError struct {
	UpgradeID string
	Cost      float64
	Currency  float64
	Err       error
}

func (e *PurchaseError) Error() string {
	if errors.Is(e.Err, ErrInsufficientFunds) {
		return fmt.Sprintf("purchase %s: %v: cost %.0f, have %.0f", e.UpgradeID, e.Err, e.Cost, math.Floor(e.Currency))
	}
	return fmt.Sprintf("purchase %s: %v", e.UpgradeID, e.Err)
}

func (e *PurchaseError) Unwrap() error {
	return e.Err
}

// Engine applies Rules against a Catalog.
type Engine struct {
	rules   Rules
	catalog *models.Catalog
}

func New(rules Rules, catalog *models.Catalog) *Engine {
	return &Engine{rules: rules, catalog: catalog}
}

func (e *Engine) Rules() Rules {
	return e.rules
}

func (e *Engine) Catalog() *models.Catalog {
	return e.catalog
}

// ApplyManualAction credits one click.
func (e *Engine) ApplyManualAction(st models.GameState) models.GameState {
	return e.earn(st, st.ClickPower)
}

// ApplyTick credits passive income for a whole number of seconds.
func (e *Engine) ApplyTick(st models.GameState, seconds int) models.GameState {
	if seconds <= 0 || st.AutoRate <= 0 {
		return st
	}
	return e.earn(st, st.AutoRate*float64(seconds))
}

// ApplyExperience adds experience without currency.
func (e *Engine) ApplyExperience(st models.GameState, xp float64) models.GameState {
	if xp <= 0 {
		return st
	}
	st = st.Clone()
	st.Experience += xp
	return st
}

func (e *Engine) earn(st models.GameState, amount float64) models.GameState {
	st = st.Clone()
	st.Currency += amount
	st.Experience += amount * e.rules.ExperienceRatio
	return st
}

// UpgradeCost is floor(baseCost * growth^owned).
func UpgradeCost(u models.Upgrade, owned int) float64 {
	return math.Floor(u.BaseCost * math.Pow(u.CostGrowthFactor, float64(owned)))
}

// Cost returns the current price of an upgrade for st.
func (e *Engine) Cost(st models.GameState, upgradeID string) (float64, error) {
	u, ok := e.catalog.Get(upgradeID)
	if !ok {
		return 0, &PurchaseError{UpgradeID: upgradeID, Currency: st.Currency, Err: ErrUnknownUpgrade}
	}
	return UpgradeCost(u, st.Owned(upgradeID)), nil
}

// PurchaseUpgrade buys one level of upgradeID. On error the input state is
// returned untouched.
func (e *Engine) PurchaseUpgrade(st models.GameState, upgradeID string) (models.GameState, float64, error) {
	u, ok := e.catalog.Get(upgradeID)
	if !ok {
		return st, 0, &PurchaseError{UpgradeID: upgradeID, Currency: st.Currency, Err: ErrUnknownUpgrade}
	}
	owned := st.Owned(upgradeID)
	cost := UpgradeCost(u, owned)
	if st.Currency < cost {
		return st, cost, &PurchaseError{UpgradeID: upgradeID, Cost: cost, Currency: st.Currency, Err: ErrInsufficientFunds}
	}

	next := st.Clone()
	next.Currency -= cost
	next.Upgrades[upgradeID] = models.UpgradeState{OwnedCount: owned + 1}
	switch u.Target {
	case models.StatClickPower:
		next.ClickPower += u.EffectMagnitude
	case models.StatAutoRate:
		next.AutoRate += u.EffectMagnitude
	}
	return next, cost, nil
}
