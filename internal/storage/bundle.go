package storage

import (
	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/monitor"
)

// Bundle is the saved result of one condition: the recorded monitors
// together with everything needed to interpret them.
type Bundle struct {
	Condition   config.Condition   `json:"condition"`
	Stimulus    float64            `json:"stimulus"`
	Seed        int64              `json:"seed"`
	Settings    *config.Settings   `json:"settings"`
	Description string             `json:"description"`
	Net         *monitor.Recording `json:"net"`
	Metrics     map[string]float64 `json:"metrics"`
}

// SimTime is the simulated duration the bundle's monitors cover.
func (b *Bundle) SimTime() float64 {
	if b.Settings == nil {
		return 0
	}
	return b.Settings.Afferents.SimTime
}

func (b *Bundle) spikeCount() int {
	if b.Net == nil {
		return 0
	}
	n := 0
	for _, m := range b.Net.Spikes {
		n += m.Count()
	}
	return n
}

func bundleFile(label string) string {
	return label + ".json"
}
