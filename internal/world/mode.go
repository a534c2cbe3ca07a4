package world

import (
	"fmt"
	"strings"

	"github.com/san-kum/edisim/internal/dynamo"
)

// Mode selects the update path taken by Step. It is fixed for a World's lifetime.
type Mode int

const (
	// ModeDefault is the holonomic double integrator.
	ModeDefault Mode = iota
	// ModeElisa drives agents with differential-drive wheel commands.
	ModeElisa
	// ModeWebots copies positions and velocities from an external simulator.
	ModeWebots
	// ModeMPC runs the default pass, then tracks it with each agent's vehicle controller.
	ModeMPC
)

var modeNames = map[Mode]string{
	ModeDefault: "default",
	ModeElisa:   "elisa",
	ModeWebots:  "webots",
	ModeMPC:     "mpc",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts the short mode names and the scenario names they came from
// (simple_tag, simple_tag_elisa, simple_tag_webots, simple_tag_mpc).
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" || name == "simple_tag" {
		return ModeDefault, nil
	}
	name = strings.TrimPrefix(name, "simple_tag_")
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return ModeDefault, fmt.Errorf("mode %q: %w", s, dynamo.ErrUnknownName)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
