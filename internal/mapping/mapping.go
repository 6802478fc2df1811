package mapping

import (
	"math"
	"strings"

	"github.com/hypebeast/go-osc/osc"
	"osc2truegear/internal/logger"
	"osc2truegear/internal/metrics"
	"osc2truegear/internal/truegear"
)

// Mapper turns OSC messages into table writes and table snapshots into effects.
type Mapper struct {
	log     logger.Logger
	table   *Table
	mode    FeedbackMode
	metrics *metrics.Metrics
}

// NewMapper конструктор.
func NewMapper(log logger.Logger, mode FeedbackMode, m *metrics.Metrics) *Mapper {
	return &Mapper{
		log:     log,
		table:   NewTable(),
		mode:    mode,
		metrics: m,
	}
}

// Mode returns the feedback mode fixed at construction.
func (p *Mapper) Mode() FeedbackMode {
	return p.mode
}

// Table returns the shared aggregation table.
func (p *Mapper) Table() *Table {
	return p.table
}

// ConsumeMessage applies one message and reports whether it hit a dot.
func (p *Mapper) ConsumeMessage(msg *osc.Message) bool {
	if msg == nil {
		return false
	}
	key := dotKey(msg.Address)
	i, ok := Resolve(key)
	if !ok {
		p.log.With(logger.Fields{"module": "mapping"}).Tracef("Ignored %s: unknown dot", msg.Address)
		p.metrics.MessageIgnored("unknown_channel")
		return false
	}

	p.log.With(logger.Fields{"module": "mapping"}).Debugf("Matched OSC message to dot key %s", key)

	v, ok := extractIntensity(msg.Arguments)
	if !ok {
		p.log.With(logger.Fields{"module": "mapping"}).Debugf("Ignored %s: unsupported argument %v", msg.Address, msg.Arguments)
		p.metrics.MessageIgnored("bad_argument")
		return false
	}
	p.set(i, v)
	return true
}

// SetChannel writes v for the dot named key. Unknown keys are ignored.
func (p *Mapper) SetChannel(key string, v float32) bool {
	i, ok := Resolve(key)
	if !ok {
		p.metrics.MessageIgnored("unknown_channel")
		return false
	}
	p.set(i, v)
	return true
}

func (p *Mapper) set(i int, v float32) {
	p.table.Set(i, v)
	p.metrics.MessageApplied()
	p.log.With(logger.Fields{"module": "mapping"}).Debugf("Set intensity for %s to %v, active %t", DotName(i), v, v > 0)
}

// BuildEffect snapshots the table and returns the effect to play, or nil when
// no dot is active. In Once mode the table is cleared in the same pass.
func (p *Mapper) BuildEffect(params Params) *truegear.Effect {
	intensities, active := p.table.Snapshot(p.mode == Once)
	var maxShake, maxElectrical float32
	for i, v := range intensities {
		if IsShake(i) {
			if v > maxShake {
				maxShake = v
			}
		} else if v > maxElectrical {
			maxElectrical = v
		}
	}

	shake := newTrack(truegear.ActionShake, Scale(params.ShakeIntensity, maxShake), 0)
	electrical := newTrack(truegear.ActionElectrical, Scale(params.ElectricalIntensity, maxElectrical), params.ElectricalInterval)

	for i, on := range active {
		if !on {
			continue
		}
		if IsShake(i) {
			shake.Index = append(shake.Index, DeviceID(i))
		} else {
			electrical.Index = append(electrical.Index, DeviceID(i))
		}
	}

	effect := &truegear.Effect{
		Name: effectName,
		UUID: effectName,
	}
	if len(shake.Index) > 0 {
		effect.Tracks = append(effect.Tracks, shake)
	}
	if len(electrical.Index) > 0 {
		effect.Tracks = append(effect.Tracks, electrical)
	}
	if len(effect.Tracks) == 0 {
		return nil
	}

	p.metrics.EffectBuilt()
	return effect
}

func newTrack(action truegear.ActionType, intensity, interval int) truegear.Track {
	return truegear.Track{
		StartTime:      0,
		EndTime:        trackEndTime,
		StartIntensity: intensity,
		EndIntensity:   intensity,
		IntensityMode:  truegear.IntensityConst,
		ActionType:     action,
		Interval:       interval,
	}
}

// Scale returns round(base*factor) clamped to [0, 150]. Halves round away from zero.
func Scale(base int, factor float32) int {
	v := math.Round(float64(float32(base) * factor))
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= maxIntensity:
		return maxIntensity
	}
	return int(v)
}

// dotKey returns the last path segment of an OSC address.
func dotKey(addr string) string {
	return addr[strings.LastIndexByte(addr, '/')+1:]
}

func extractIntensity(args []interface{}) (float32, bool) {
	if len(args) == 0 {
		return 0, false
	}
	switch v := args[0].(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
