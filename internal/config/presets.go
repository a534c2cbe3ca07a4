package config

import "sort"

func preset(mutate func(*Config)) *Config {
	cfg := DefaultConfig()
	mutate(cfg)
	return cfg
}

var Presets = map[string]map[string]*Config{
	"simple_tag": {
		"small": preset(func(c *Config) {
			c.Scenario.Landmarks = 1
			c.Episode.Steps = 15
		}),
		"crowded": preset(func(c *Config) {
			c.Scenario.Adversaries = 4
			c.Scenario.Good = 2
			c.Scenario.Landmarks = 3
			c.EDI.Mask = []int{0, 1, 2, 3}
			c.Episode.Steps = 40
		}),
		"scripted": preset(func(c *Config) {
			c.Scenario.ScriptedPrey = true
		}),
		"mpc": preset(func(c *Config) {
			c.World.Mode = "mpc"
			c.Scenario.Controller = "mpc"
		}),
		"elisa": preset(func(c *Config) {
			c.World.Mode = "elisa"
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scenario, name string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListScenarios returns the preset groups in sorted order.
func ListScenarios() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
