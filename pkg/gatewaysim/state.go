package gatewaysim

import (
	"fmt"
	"sync"

	"github.com/dmx-tools/dmxbench/pkg/gateway"
)

// RegisterCount is the size of the simulated DMX channel universe.
const RegisterCount = 512

// Coil addresses understood by the Modbus surface.
const (
	CoilEnable   = 0
	CoilBlackout = 1
)

// fixture maps a named light onto a contiguous register range.
type fixture struct {
	base     uint16
	channels []string
}

// State is the channel universe shared by all three protocol surfaces.
// Every handler takes the lock for the duration of one command, so a REST
// set and a Modbus write never interleave mid-update.
type State struct {
	mu       sync.Mutex
	regs     [RegisterCount]uint16
	enabled  bool
	blackout bool
	fixtures map[string]fixture
}

// NewState builds a universe with the default fixture layout: four RGBW
// lights packed from register 0 upward.
func NewState() *State {
	s := &State{fixtures: make(map[string]fixture)}
	rgbw := []string{"red", "green", "blue", "white"}
	base := uint16(0)
	for _, name := range []string{"rack1/level1", "rack1/level2", "rack2/level1", "rack2/level2"} {
		s.fixtures[name] = fixture{base: base, channels: rgbw}
		base += uint16(len(rgbw))
	}
	return s
}

// ReadRegisters copies count registers starting at addr.
func (s *State) ReadRegisters(addr, count uint16) ([]uint16, bool) {
	if int(addr)+int(count) > RegisterCount {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint16, count)
	copy(out, s.regs[addr:int(addr)+int(count)])
	return out, true
}

// WriteRegisters stores values starting at addr.
func (s *State) WriteRegisters(addr uint16, values []uint16) bool {
	if int(addr)+len(values) > RegisterCount {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.regs[addr:], values)
	return true
}

// ReadCoils returns count coil states starting at addr. Only the enable and
// blackout coils exist.
func (s *State) ReadCoils(addr, count uint16) ([]bool, bool) {
	if int(addr)+int(count) > 2 {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all := [2]bool{s.enabled, s.blackout}
	out := make([]bool, count)
	copy(out, all[addr:int(addr)+int(count)])
	return out, true
}

// WriteCoil flips one control coil. Raising the blackout coil zeroes the
// universe, matching the real gateway.
func (s *State) WriteCoil(addr uint16, on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch addr {
	case CoilEnable:
		s.enabled = on
	case CoilBlackout:
		s.blackout = on
		if on {
			s.regs = [RegisterCount]uint16{}
		}
	default:
		return false
	}
	return true
}

// SetLight applies named channel values to one fixture. Unknown channels are
// ignored, as the real gateway does.
func (s *State) SetLight(target string, values map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fixtures[target]
	if !ok {
		return fmt.Errorf("gatewaysim: unknown light %q", target)
	}
	for i, name := range f.channels {
		if v, ok := values[name]; ok {
			s.regs[f.base+uint16(i)] = uint16(v)
		}
	}
	return nil
}

// GetLight returns one fixture's current channel values by name.
func (s *State) GetLight(target string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fixtures[target]
	if !ok {
		return nil, fmt.Errorf("gatewaysim: unknown light %q", target)
	}
	out := make(map[string]int, len(f.channels))
	for i, name := range f.channels {
		out[name] = int(s.regs[f.base+uint16(i)])
	}
	return out, nil
}

// Lights returns the fixture inventory in the REST API's shape.
func (s *State) Lights() map[string]gateway.Light {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]gateway.Light, len(s.fixtures))
	for name, f := range s.fixtures {
		chs := make([]gateway.Channel, len(f.channels))
		for i, ch := range f.channels {
			chs[i] = gateway.Channel{Name: ch}
		}
		out[name] = gateway.Light{Channels: chs}
	}
	return out
}

// Blackout zeroes every register and raises the blackout coil.
func (s *State) Blackout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blackout = true
	s.regs = [RegisterCount]uint16{}
}

// Enable raises the enable coil and clears any blackout.
func (s *State) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
	s.blackout = false
}

// Enabled reports whether DMX output is enabled.
func (s *State) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}
