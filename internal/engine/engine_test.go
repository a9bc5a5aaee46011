package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tatianab/cyber-clicker/internal/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cat, err := models.DefaultCatalog()
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	return New(DefaultRules(), cat)
}

func TestApplyManualActionFresh(t *testing.T) {
	e := newTestEngine(t)
	st := e.ApplyManualAction(models.DefaultState())
	if st.Currency != 1 {
		t.Errorf("Expected currency 1, got %v", st.Currency)
	}
	if st.Experience != 0.1 {
		t.Errorf("Expected experience 0.1, got %v", st.Experience)
	}
}

func TestApplyManualActionDoesNotMutateInput(t *testing.T) {
	e := newTestEngine(t)
	in := models.DefaultState()
	in.Upgrades["firewall"] = models.UpgradeState{OwnedCount: 1}
	before := in.Clone()

	_ = e.ApplyManualAction(in)
	if diff := cmp.Diff(before, in); diff != "" {
		t.Errorf("Input state changed (-want +got):\n%s", diff)
	}
}

func TestApplyTick(t *testing.T) {
	e := newTestEngine(t)
	st := models.DefaultState()
	st.AutoRate = 2.5

	got := e.ApplyTick(st, 4)
	if got.Currency != 10 {
		t.Errorf("Expected currency 10, got %v", got.Currency)
	}
	if got.Experience != 1 {
		t.Errorf("Expected experience 1, got %v", got.Experience)
	}

	idle := models.DefaultState()
	if diff := cmp.Diff(idle, e.ApplyTick(idle, 10)); diff != "" {
		t.Errorf("Expected no-op tick with zero auto rate (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(st, e.ApplyTick(st, 0)); diff != "" {
		t.Errorf("Expected no-op tick for zero seconds (-want +got):\n%s", diff)
	}
}

func TestPurchaseUpgradeFirewall(t *testing.T) {
	e := newTestEngine(t)
	st := models.DefaultState()
	st.Currency = 100
	st.Upgrades["firewall"] = models.UpgradeState{OwnedCount: 0}

	st, cost, err := e.PurchaseUpgrade(st, "firewall")
	if err != nil {
		t.Fatalf("Expected purchase to succeed: %v", err)
	}
	if cost != 10 {
		t.Errorf("Expected cost 10, got %v", cost)
	}
	if st.Currency != 90 || st.Owned("firewall") != 1 {
		t.Errorf("Expected currency 90 and 1 owned, got %v and %d", st.Currency, st.Owned("firewall"))
	}
	if st.AutoRate != 1 {
		t.Errorf("Expected auto rate 1, got %v", st.AutoRate)
	}

	st, cost, err = e.PurchaseUpgrade(st, "firewall")
	if err != nil {
		t.Fatalf("Expected second purchase to succeed: %v", err)
	}
	if cost != 11 {
		t.Errorf("Expected second cost 11, got %v", cost)
	}
	if st.Currency != 79 || st.AutoRate != 2 {
		t.Errorf("Expected currency 79 and auto rate 2, got %v and %v", st.Currency, st.AutoRate)
	}
}

func TestPurchaseUpgradeClickPowerIsAdditive(t *testing.T) {
	e := newTestEngine(t)
	st := models.DefaultState()
	st.Currency = 1000
	st.ClickPower = 4

	st, _, err := e.PurchaseUpgrade(st, "two-factor")
	if err != nil {
		t.Fatalf("Expected purchase to succeed: %v", err)
	}
	if st.ClickPower != 9 {
		t.Errorf("Expected click power 9, got %v", st.ClickPower)
	}
}

func TestPurchaseUpgradeInsufficientFunds(t *testing.T) {
	e := newTestEngine(t)
	st := models.DefaultState()
	st.Currency = 9.99
	before := st.Clone()

	got, cost, err := e.PurchaseUpgrade(st, "firewall")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	var perr *PurchaseError
	if !errors.As(err, &perr) || perr.Cost != 10 || perr.UpgradeID != "firewall" {
		t.Errorf("Expected PurchaseError with cost 10, got %#v", err)
	}
	if cost != 10 {
		t.Errorf("Expected reported cost 10, got %v", cost)
	}
	if diff := cmp.Diff(before, got); diff != "" {
		t.Errorf("State changed on failed purchase (-want +got):\n%s", diff)
	}
}

func TestPurchaseUpgradeUnknown(t *testing.T) {
	e := newTestEngine(t)
	st := models.DefaultState()
	st.Currency = 1e9

	got, _, err := e.PurchaseUpgrade(st, "quantum-shield")
	if !errors.Is(err, ErrUnknownUpgrade) {
		t.Fatalf("Expected ErrUnknownUpgrade, got %v", err)
	}
	if diff := cmp.Diff(st, got); diff != "" {
		t.Errorf("State changed on unknown upgrade (-want +got):\n%s", diff)
	}
	if _, err := e.Cost(st, "quantum-shield"); !errors.Is(err, ErrUnknownUpgrade) {
		t.Errorf("Expected Cost to reject unknown upgrade, got %v", err)
	}
}

func TestPurchaseCostStrictlyIncreases(t *testing.T) {
	e := newTestEngine(t)
	for _, u := range e.Catalog().List() {
		st := models.DefaultState()
		st.Currency = 1e12
		prev := -1.0
		for i := 0; i < 25; i++ {
			before := st.Currency
			var cost float64
			var err error
			st, cost, err = e.PurchaseUpgrade(st, u.ID)
			if err != nil {
				t.Fatalf("%s purchase %d failed: %v", u.ID, i, err)
			}
			if cost < u.BaseCost {
				t.Errorf("%s: cost %v below base cost %v", u.ID, cost, u.BaseCost)
			}
			if st.Currency != before-cost {
				t.Errorf("%s: expected currency %v, got %v", u.ID, before-cost, st.Currency)
			}
			// Flooring can flatten the first steps of cheap upgrades.
			if cost < prev {
				t.Errorf("%s: cost decreased from %v to %v", u.ID, prev, cost)
			}
			prev = cost
		}
		if prev <= u.BaseCost {
			t.Errorf("%s: expected cost to grow past base cost, got %v", u.ID, prev)
		}
	}
}

func TestUpgradeCostStrictGrowth(t *testing.T) {
	u := models.Upgrade{ID: "x", BaseCost: 100, CostGrowthFactor: 1.15}
	prev := UpgradeCost(u, 0)
	for n := 1; n < 30; n++ {
		c := UpgradeCost(u, n)
		if c <= prev {
			t.Fatalf("Expected cost(%d)=%v > cost(%d)=%v", n, c, n-1, prev)
		}
		prev = c
	}
}
