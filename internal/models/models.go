package models

// Stat names a GameState field an upgrade can raise.
type Stat string

const (
	StatClickPower Stat = "clickPower"
	StatAutoRate   Stat = "autoRate"
)

// Upgrade is an immutable catalog entry.
type Upgrade struct {
	ID               string  `yaml:"id"`
	Name             string  `yaml:"name"`
	Description      string  `yaml:"description"`
	Lesson           string  `yaml:"lesson"` // the security concept this upgrade teaches
	BaseCost         float64 `yaml:"baseCost"`
	CostGrowthFactor float64 `yaml:"costGrowthFactor"`
	EffectMagnitude  float64 `yaml:"effectMagnitude"`
	Target           Stat    `yaml:"target"`
}

// UpgradeState is the per-upgrade progress held in a GameState.
type UpgradeState struct {
	OwnedCount int `yaml:"ownedCount"`
}

// GameState is the unit of mutation and persistence.
type GameState struct {
	Currency   float64                 `yaml:"currency"`
	ClickPower float64                 `yaml:"clickPower"`
	AutoRate   float64                 `yaml:"autoRate"`
	Level      int                     `yaml:"level"`
	Experience float64                 `yaml:"experience"`
	Upgrades   map[string]UpgradeState `yaml:"upgrades"`
}

const (
	DefaultCurrency   = 0
	DefaultClickPower = 1
	DefaultAutoRate   = 0
	DefaultLevel      = 1
	DefaultExperience = 0
)

// DefaultState returns the state a brand new player starts with.
func DefaultState() GameState {
	return GameState{
		Currency:   DefaultCurrency,
		ClickPower: DefaultClickPower,
		AutoRate:   DefaultAutoRate,
		Level:      DefaultLevel,
		Experience: DefaultExperience,
		Upgrades:   map[string]UpgradeState{},
	}
}

// Clone returns a deep copy. The Upgrades map of the copy is never nil.
func (s GameState) Clone() GameState {
	c := s
	c.Upgrades = make(map[string]UpgradeState, len(s.Upgrades))
	for id, u := range s.Upgrades {
		c.Upgrades[id] = u
	}
	return c
}

// Owned returns how many of the given upgrade have been bought.
func (s GameState) Owned(id string) int {
	return s.Upgrades[id].OwnedCount
}
