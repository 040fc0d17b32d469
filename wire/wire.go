// Package wire documents the distributed deployment layer's data model as an
// external collaborator (spec §6): the ServerPort/ServerBindConfig sum types
// and the length-delimited frame codec used between dataflow processes. The
// deployment layer itself — listener setup, connection management — is
// explicitly out of scope (spec §1, "example applications"); this package
// supplies only the shapes another component would serialize against.
package wire

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// PortKind discriminates ServerPort's sum-type variants.
type PortKind int

const (
	// PortNull carries no data; a sink/source with no wire transport.
	PortNull PortKind = iota
	PortUnixSocket
	PortTCP
	PortDemux
	PortMerge
	PortTagged
)

// ErrUnknownPortKind is returned when decoding a ServerPort whose kind tag
// doesn't match one of the known variants.
var ErrUnknownPortKind = errors.New("wire: unknown port kind")

// ServerPort is the dial-side half of the deployment wire format's
// connection topology: a Unix socket path, a TCP address, a Demux fan-out
// keyed by a u32, a Merge fan-in of several sources, a Tagged wrapper
// prefixing an originator id onto every frame, or Null.
type ServerPort struct {
	Kind PortKind `yaml:"kind"`

	UnixSocketPath string                `yaml:"unix_socket_path,omitempty"`
	TCPAddr        string                `yaml:"tcp_addr,omitempty"`
	Demux          map[uint32]ServerPort `yaml:"demux,omitempty"`
	Merge          []ServerPort          `yaml:"merge,omitempty"`
	Tagged         *TaggedPort           `yaml:"tagged,omitempty"`
}

// TaggedPort wraps an inner ServerPort with the originator id it tags every
// inbound frame with.
type TaggedPort struct {
	Inner        ServerPort `yaml:"inner"`
	OriginatorID uint32     `yaml:"originator_id"`
}

// ServerBindConfig mirrors ServerPort for the listening side: the same sum
// of variants, but describing what to bind rather than what to dial.
type ServerBindConfig struct {
	Kind PortKind `yaml:"kind"`

	UnixSocketPath string                      `yaml:"unix_socket_path,omitempty"`
	TCPBindAddr    string                      `yaml:"tcp_bind_addr,omitempty"`
	Demux          map[uint32]ServerBindConfig `yaml:"demux,omitempty"`
	Merge          []ServerBindConfig          `yaml:"merge,omitempty"`
	Tagged         *TaggedBindConfig           `yaml:"tagged,omitempty"`
}

// TaggedBindConfig is ServerBindConfig's mirror of TaggedPort.
type TaggedBindConfig struct {
	Inner        ServerBindConfig `yaml:"inner"`
	OriginatorID uint32           `yaml:"originator_id"`
}

// UnixSocket builds a ServerPort dialing a Unix socket at path.
func UnixSocket(path string) ServerPort {
	return ServerPort{Kind: PortUnixSocket, UnixSocketPath: path}
}

// TCPPort builds a ServerPort dialing a TCP address.
func TCPPort(addr string) ServerPort {
	return ServerPort{Kind: PortTCP, TCPAddr: addr}
}

// DemuxPort builds a ServerPort fanning out to routes keyed by a u32.
func DemuxPort(routes map[uint32]ServerPort) ServerPort {
	return ServerPort{Kind: PortDemux, Demux: routes}
}

// MergePort builds a ServerPort fanning in from sources.
func MergePort(sources []ServerPort) ServerPort {
	return ServerPort{Kind: PortMerge, Merge: sources}
}

// TagPort wraps inner with originatorID.
func TagPort(inner ServerPort, originatorID uint32) ServerPort {
	return ServerPort{Kind: PortTagged, Tagged: &TaggedPort{Inner: inner, OriginatorID: originatorID}}
}

// Validate reports whether p's populated fields agree with its Kind tag.
func (p ServerPort) Validate() error {
	switch p.Kind {
	case PortNull:
		return nil
	case PortUnixSocket:
		if p.UnixSocketPath == "" {
			return fmt.Errorf("wire: %w: unix_socket_path empty for PortUnixSocket", ErrUnknownPortKind)
		}
	case PortTCP:
		if p.TCPAddr == "" {
			return fmt.Errorf("wire: %w: tcp_addr empty for PortTCP", ErrUnknownPortKind)
		}
	case PortDemux:
		if len(p.Demux) == 0 {
			return fmt.Errorf("wire: %w: demux empty for PortDemux", ErrUnknownPortKind)
		}
	case PortMerge:
		if len(p.Merge) == 0 {
			return fmt.Errorf("wire: %w: merge empty for PortMerge", ErrUnknownPortKind)
		}
	case PortTagged:
		if p.Tagged == nil {
			return fmt.Errorf("wire: %w: tagged nil for PortTagged", ErrUnknownPortKind)
		}
	default:
		return fmt.Errorf("wire: %w: kind %d", ErrUnknownPortKind, p.Kind)
	}

	return nil
}

// LoadServerPortYAML parses a ServerPort from YAML config, validating the
// result.
func LoadServerPortYAML(data []byte) (ServerPort, error) {
	var p ServerPort
	if err := yaml.Unmarshal(data, &p); err != nil {
		return ServerPort{}, fmt.Errorf("wire: parse ServerPort: %w", err)
	}
	if err := p.Validate(); err != nil {
		return ServerPort{}, err
	}

	return p, nil
}
