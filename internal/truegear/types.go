package truegear

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// MethodPlayNoRegistered plays an effect that was not registered on the service beforehand.
const MethodPlayNoRegistered = "play_no_registered"

// ActionType selects the feedback mechanism of a Track.
type ActionType string

const (
	ActionShake      ActionType = "Shake"
	ActionElectrical ActionType = "Electrical"
)

// IntensityMode describes how intensity evolves between StartTime and EndTime.
type IntensityMode string

const (
	IntensityConst        IntensityMode = "Const"
	IntensityFade         IntensityMode = "Fade"
	IntensityFadeInAndOut IntensityMode = "FadeInAndOut"
)

// Bool is encoded by the TrueGear service as the strings "True" and "False".
type Bool bool

func (b Bool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte(`"True"`), nil
	}
	return []byte(`"False"`), nil
}

func (b *Bool) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("bool string: %w", err)
	}
	switch s {
	case "True":
		*b = true
	case "False":
		*b = false
	default:
		return fmt.Errorf("invalid bool string: %s", s)
	}
	return nil
}

// Effect is one haptic effect; it is never mutated after BuildEffect returns it.
type Effect struct {
	Name     string  `json:"name"`
	UUID     string  `json:"uuid"`
	Keep     Bool    `json:"keep"`
	Priority int     `json:"priority"`
	Tracks   []Track `json:"tracks"`
}

// Track is one timed instruction targeting a set of device dots.
type Track struct {
	StartTime      int           `json:"start_time"`
	EndTime        int           `json:"end_time"`
	StopName       string        `json:"stop_name"`
	StartIntensity int           `json:"start_intensity"`
	EndIntensity   int           `json:"end_intensity"`
	IntensityMode  IntensityMode `json:"intensity_mode"`
	ActionType     ActionType    `json:"action_type"`
	Once           Bool          `json:"once"`
	Interval       int           `json:"interval"`
	Index          []int         `json:"index"`
}

// Message is the envelope sent over the WebSocket. Body travels as base64 of its JSON.
// Decoding matches keys case-insensitively, so "Method"/"Body" are accepted too.
type Message struct {
	Method string
	Body   Effect
}

type wireMessage struct {
	Method string `json:"method"`
	Body   string `json:"body"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(m.Body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	return json.Marshal(wireMessage{
		Method: m.Method,
		Body:   base64.StdEncoding.EncodeToString(body),
	})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(w.Body)
	if err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	var body Effect
	if err := json.Unmarshal(raw, &body); err != nil {
		return fmt.Errorf("unmarshal body: %w", err)
	}
	m.Method = w.Method
	m.Body = body
	return nil
}

// PlayEffect wraps an effect into the play_no_registered envelope.
func PlayEffect(e *Effect) Message {
	return Message{Method: MethodPlayNoRegistered, Body: *e}
}
