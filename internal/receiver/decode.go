package receiver

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hypebeast/go-osc/osc"
)

// bundleHeader is "#bundle\0" followed by the 8 byte timetag.
const (
	bundleTag    = "#bundle\x00"
	bundleHeader = len(bundleTag) + 8
)

var errBadBundle = errors.New("malformed OSC bundle")

// decodePacket returns the messages of a datagram in wire order, walking
// nested bundles depth-first. Bundle elements are cut by their size prefix;
// only single messages are handed to the go-osc decoder.
func decodePacket(data []byte) ([]*osc.Message, error) {
	return appendPacket(nil, data)
}

func appendPacket(out []*osc.Message, data []byte) ([]*osc.Message, error) {
	if len(data) == 0 {
		return nil, errNotOSC
	}
	switch data[0] {
	case '/':
		p, err := osc.ParsePacket(string(data))
		if err != nil {
			return nil, err
		}
		msg, ok := p.(*osc.Message)
		if !ok || msg == nil {
			return nil, errNotOSC
		}
		return append(out, msg), nil
	case '#':
		return appendBundle(out, data)
	}
	return nil, errNotOSC
}

func appendBundle(out []*osc.Message, data []byte) ([]*osc.Message, error) {
	if len(data) < bundleHeader || string(data[:len(bundleTag)]) != bundleTag {
		return nil, errBadBundle
	}

	rest := data[bundleHeader:]
	for len(rest) > 0 {
		if len(rest) < 4 {
			return nil, fmt.Errorf("%w: truncated element size", errBadBundle)
		}
		size := int(int32(binary.BigEndian.Uint32(rest)))
		rest = rest[4:]
		if size <= 0 || size > len(rest) {
			return nil, fmt.Errorf("%w: element size %d, %d bytes left", errBadBundle, size, len(rest))
		}

		var err error
		if out, err = appendPacket(out, rest[:size]); err != nil {
			return nil, err
		}
		rest = rest[size:]
	}
	return out, nil
}
