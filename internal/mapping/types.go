package mapping

import (
	"fmt"
	"strings"
)

// FeedbackMode decides whether the table survives a tick.
type FeedbackMode int

const (
	// Continuous keeps re-sending the last state until a message sets the dot to zero.
	Continuous FeedbackMode = iota
	// Once clears the table after every tick.
	Once
)

// ParseFeedbackMode accepts "continuous" and "once", in any case.
func ParseFeedbackMode(s string) (FeedbackMode, error) {
	switch strings.ToLower(s) {
	case "continuous":
		return Continuous, nil
	case "once":
		return Once, nil
	}
	return Continuous, fmt.Errorf("unknown feedback mode %q (want continuous or once)", s)
}

func (m FeedbackMode) String() string {
	if m == Once {
		return "once"
	}
	return "continuous"
}

// Set implements pflag.Value.
func (m *FeedbackMode) Set(s string) error {
	v, err := ParseFeedbackMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Type implements pflag.Value.
func (m *FeedbackMode) Type() string {
	return "mode"
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *FeedbackMode) UnmarshalText(text []byte) error {
	return m.Set(string(text))
}

// Params are the per-tick effect parameters.
type Params struct {
	ShakeIntensity      int // ShakeIntensity - базовая интенсивность вибрации.
	ElectricalIntensity int // ElectricalIntensity - базовая интенсивность электростимуляции.
	ElectricalInterval  int // ElectricalInterval - интервал электростимуляции.
}

const (
	effectName   = "VRChatMsg"
	maxIntensity = 150
	trackEndTime = 150
)
