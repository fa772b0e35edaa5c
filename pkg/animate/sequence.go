package animate

// Step is one named frame of an animation.
type Step struct {
	Name   string
	Values []uint16
}

// registerSequence is the fixed 4-channel pattern driven over Modbus,
// assuming an RGBW-style fixture on channels 1-4. Values are truncated or
// zero-padded to the configured channel count at run time.
func registerSequence() []Step {
	return []Step{
		{"All OFF", []uint16{0, 0, 0, 0}},
		{"Red 100%", []uint16{255, 0, 0, 0}},
		{"Blue 100%", []uint16{0, 255, 0, 0}},
		{"White 100%", []uint16{0, 0, 255, 0}},
		{"Far Red 100%", []uint16{0, 0, 0, 255}},
		{"Red+Blue", []uint16{255, 255, 0, 0}},
		{"All 50%", []uint16{128, 128, 128, 128}},
		{"All 100%", []uint16{255, 255, 255, 255}},
		{"Fade down", []uint16{192, 192, 192, 192}},
		{"Fade down", []uint16{128, 128, 128, 128}},
		{"Fade down", []uint16{64, 64, 64, 64}},
		{"All OFF", []uint16{0, 0, 0, 0}},
	}
}

// NamedStep is one frame addressed by channel name, for the HTTP surface.
type NamedStep struct {
	Name   string
	Values map[string]int
}

// namedSequence builds the HTTP-side pattern against whatever channels the
// light actually reports. Steps naming a channel the light lacks are
// dropped, except the blue fallbacks which retarget the first channel.
func namedSequence(channels []string) []NamedStep {
	if len(channels) == 0 {
		return nil
	}
	has := make(map[string]bool, len(channels))
	for _, ch := range channels {
		has[ch] = true
	}
	all := func(v int) map[string]int {
		m := make(map[string]int, len(channels))
		for _, ch := range channels {
			m[ch] = v
		}
		return m
	}
	pick := func(ch string, v int) map[string]int {
		if has[ch] {
			return map[string]int{ch: v}
		}
		return nil
	}
	blueOr := func(v int) map[string]int {
		if has["blue"] {
			return map[string]int{"blue": v}
		}
		return map[string]int{channels[0]: v}
	}

	steps := []NamedStep{
		{"All OFF", all(0)},
		{"Blue 100%", blueOr(255)},
		{"Blue 50%", blueOr(128)},
		{"White 100%", pick("white", 255)},
		{"Red 100%", pick("red", 255)},
		{"All 50%", all(128)},
		{"All 100%", all(255)},
		{"All OFF", all(0)},
	}
	out := steps[:0]
	for _, s := range steps {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}
