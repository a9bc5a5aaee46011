package models

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// SnapshotVersion is written into every encoded snapshot.
const SnapshotVersion = 1

const (
	// MaxLevel is the highest level a game can hold.
	MaxLevel = 1_000_000
	// MaxStat bounds currency, experience, click power and auto rate in a
	// snapshot. Larger values are treated as invalid.
	MaxStat = 1e15
)

type snapshot struct {
	Version   int `yaml:"version"`
	GameState `yaml:",inline"`
}

// EncodeSnapshot serializes a state for durable storage.
func EncodeSnapshot(s GameState) ([]byte, error) {
	snap := snapshot{Version: SnapshotVersion, GameState: s.Clone()}
	return yaml.Marshal(snap)
}

// SnapshotRepair describes what DecodeSnapshot had to fix.
type SnapshotRepair struct {
	// Corrupt is set when the data could not be parsed as a mapping at all.
	Corrupt bool
	Err     error
	// Defaulted lists top-level fields that were missing or invalid.
	Defaulted []string
	// Dropped lists upgrade ids whose entries were invalid.
	Dropped []string
}

// Clean reports whether the snapshot decoded without any repair.
func (r SnapshotRepair) Clean() bool {
	return !r.Corrupt && len(r.Defaulted) == 0 && len(r.Dropped) == 0
}

// DecodeSnapshot never fails: every field that is missing or invalid falls
// back to its default on its own, so a damaged snapshot keeps whatever it
// still holds. JSON input is accepted since it is valid YAML.
func DecodeSnapshot(data []byte) (GameState, SnapshotRepair) {
	st := DefaultState()
	var rep SnapshotRepair

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		rep.Corrupt = true
		rep.Err = fmt.Errorf("failed to parse snapshot: %w", err)
		return st, rep
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		rep.Corrupt = true
		rep.Err = fmt.Errorf("snapshot is not a mapping")
		return st, rep
	}
	fields := mappingFields(doc.Content[0])

	decodeNumber(fields, "currency", &st.Currency, func(v float64) bool { return v >= 0 && v <= MaxStat }, &rep)
	decodeNumber(fields, "clickPower", &st.ClickPower, func(v float64) bool { return v > 0 && v <= MaxStat }, &rep)
	decodeNumber(fields, "autoRate", &st.AutoRate, func(v float64) bool { return v >= 0 && v <= MaxStat }, &rep)
	decodeNumber(fields, "experience", &st.Experience, func(v float64) bool { return v >= 0 && v <= MaxStat }, &rep)

	level := float64(st.Level)
	decodeNumber(fields, "level", &level, func(v float64) bool { return v >= 1 && v <= MaxLevel && isWhole(v) }, &rep)
	st.Level = int(level)

	node, ok := fields["upgrades"]
	switch {
	case !ok:
		rep.Defaulted = append(rep.Defaulted, "upgrades")
	case node.Kind != yaml.MappingNode:
		rep.Defaulted = append(rep.Defaulted, "upgrades")
	default:
		for i := 0; i+1 < len(node.Content); i += 2 {
			id := node.Content[i].Value
			owned, ok := decodeUpgrade(node.Content[i+1])
			if id == "" || !ok {
				rep.Dropped = append(rep.Dropped, id)
				continue
			}
			st.Upgrades[id] = UpgradeState{OwnedCount: owned}
		}
	}

	return st, rep
}

func mappingFields(m *yaml.Node) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		out[m.Content[i].Value] = m.Content[i+1]
	}
	return out
}

func decodeNumber(fields map[string]*yaml.Node, name string, dst *float64, valid func(float64) bool, rep *SnapshotRepair) {
	node, ok := fields[name]
	if !ok {
		rep.Defaulted = append(rep.Defaulted, name)
		return
	}
	v, ok := scalarNumber(node)
	if !ok || !valid(v) {
		rep.Defaulted = append(rep.Defaulted, name)
		return
	}
	*dst = v
}

func decodeUpgrade(node *yaml.Node) (int, bool) {
	if node.Kind != yaml.MappingNode {
		return 0, false
	}
	countNode, ok := mappingFields(node)["ownedCount"]
	if !ok {
		return 0, false
	}
	v, ok := scalarNumber(countNode)
	if !ok || v < 0 || !isWhole(v) || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

func scalarNumber(node *yaml.Node) (float64, bool) {
	if node.Kind != yaml.ScalarNode {
		return 0, false
	}
	if node.Tag != "!!int" && node.Tag != "!!float" {
		return 0, false
	}
	var v float64
	if err := node.Decode(&v); err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func isWhole(v float64) bool {
	return v == math.Trunc(v)
}
