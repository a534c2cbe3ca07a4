package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/edisim/internal/control"
	"github.com/san-kum/edisim/internal/integrators"
	"github.com/san-kum/edisim/internal/world"
)

const (
	DefaultAdversaries = 3
	DefaultGood        = 1
	DefaultLandmarks   = 2
	DefaultSteps       = 25
	DefaultActions     = 5
	DefaultHidden      = 64
)

type Config struct {
	World    World    `yaml:"world"`
	Scenario Scenario `yaml:"scenario"`
	Episode  Episode  `yaml:"episode"`
	EDI      EDI      `yaml:"edi"`
	Network  Network  `yaml:"network"`
}

type World struct {
	Mode          string  `yaml:"mode"`
	Dt            float64 `yaml:"dt"`
	Damping       float64 `yaml:"damping"`
	ContactForce  float64 `yaml:"contact_force"`
	ContactMargin float64 `yaml:"contact_margin"`
	DimC          int     `yaml:"dim_c"`
	Seed          int64   `yaml:"seed"`
}

type Scenario struct {
	Adversaries int `yaml:"adversaries"`
	Good        int `yaml:"good"`
	Landmarks   int `yaml:"landmarks"`
	// ScriptedPrey hands good agents to the flee script instead of the policy.
	ScriptedPrey bool    `yaml:"scripted_prey"`
	Controller   string  `yaml:"controller"`
	Horizon      int     `yaml:"horizon"`
	// Gains override controller parameters by name, for example Kv or DistKp.
	Gains map[string]float64 `yaml:"gains,omitempty"`
	// Integrator steps vehicle poses in the kinematic modes.
	Integrator string  `yaml:"integrator"`
	UNoise     float64 `yaml:"u_noise"`
	CNoise     float64 `yaml:"c_noise"`
}

type Episode struct {
	Steps int `yaml:"steps"`
}

type EDI struct {
	// Mask lists the cooperating agents whose critics define zeta.
	Mask       []int  `yaml:"mask"`
	Workers    int    `yaml:"workers"`
	Checkpoint string `yaml:"checkpoint"`
}

type Network struct {
	Actions int   `yaml:"actions"`
	FC1     int   `yaml:"fc1"`
	FC2     int   `yaml:"fc2"`
	Seed    int64 `yaml:"seed"`
}

func DefaultConfig() *Config {
	p := world.DefaultParams()
	return &Config{
		World: World{
			Mode:          p.Mode.String(),
			Dt:            p.Dt,
			Damping:       p.Damping,
			ContactForce:  p.ContactForce,
			ContactMargin: p.ContactMargin,
			DimC:          p.DimC,
		},
		Scenario: Scenario{
			Adversaries: DefaultAdversaries,
			Good:        DefaultGood,
			Landmarks:   DefaultLandmarks,
			Controller:  "simple",
			Horizon:     control.DefaultHorizon,
			Integrator:  "rk4",
		},
		Episode: Episode{Steps: DefaultSteps},
		EDI:     EDI{Mask: []int{0, 1, 2}},
		Network: Network{
			Actions: DefaultActions,
			FC1:     DefaultHidden,
			FC2:     DefaultHidden,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WorldParams converts the world section into simulation parameters.
func (c *Config) WorldParams() (world.Params, error) {
	mode, err := world.ParseMode(c.World.Mode)
	if err != nil {
		return world.Params{}, err
	}
	p := world.DefaultParams()
	p.Mode = mode
	p.Dt = c.World.Dt
	p.Damping = c.World.Damping
	p.ContactForce = c.World.ContactForce
	p.ContactMargin = c.World.ContactMargin
	p.DimC = c.World.DimC
	p.Seed = c.World.Seed
	return p, nil
}

func (c *Config) NumAgents() int {
	return c.Scenario.Adversaries + c.Scenario.Good
}

func (c *Config) Validate() error {
	p, err := c.WorldParams()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s := c.Scenario
	if s.Adversaries < 0 || s.Good < 0 || s.Landmarks < 0 {
		return fmt.Errorf("config: negative entity count")
	}
	if c.NumAgents() == 0 {
		return fmt.Errorf("config: scenario has no agents")
	}
	if p.Mode == world.ModeMPC || p.Mode == world.ModeElisa {
		ctrl, err := control.New(s.Controller, s.Horizon)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if err := control.Tune(ctrl, s.Gains); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if _, err := integrators.New(s.Integrator); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if c.Episode.Steps <= 0 {
		return fmt.Errorf("config: episode steps must be positive, got %d", c.Episode.Steps)
	}
	for _, k := range c.EDI.Mask {
		if k < 0 || k >= c.NumAgents() {
			return fmt.Errorf("config: mask index %d outside %d agents", k, c.NumAgents())
		}
	}
	n := c.Network
	if n.Actions <= 0 || n.FC1 <= 0 || n.FC2 <= 0 {
		return fmt.Errorf("config: network widths must be positive")
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.EDI.Mask = append([]int(nil), c.EDI.Mask...)
	if c.Scenario.Gains != nil {
		out.Scenario.Gains = make(map[string]float64, len(c.Scenario.Gains))
		for k, v := range c.Scenario.Gains {
			out.Scenario.Gains[k] = v
		}
	}
	return &out
}
