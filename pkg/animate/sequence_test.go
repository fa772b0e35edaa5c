package animate

import "testing"

func TestRegisterSequenceShape(t *testing.T) {
	steps := registerSequence()
	if len(steps) != 12 {
		t.Fatalf("got %d steps, want 12", len(steps))
	}
	if steps[0].Name != "All OFF" || steps[len(steps)-1].Name != "All OFF" {
		t.Error("sequence must start and end dark")
	}
	for _, s := range steps {
		if len(s.Values) != 4 {
			t.Errorf("step %q has %d values", s.Name, len(s.Values))
		}
	}
}

func TestFitChannels(t *testing.T) {
	got := fitChannels([]uint16{255, 128, 64, 32}, 2)
	if len(got) != 2 || got[0] != 255 || got[1] != 128 {
		t.Errorf("truncate = %v", got)
	}
	got = fitChannels([]uint16{255}, 4)
	if len(got) != 4 || got[0] != 255 || got[3] != 0 {
		t.Errorf("pad = %v", got)
	}
}

func TestNamedSequenceRGBW(t *testing.T) {
	steps := namedSequence([]string{"red", "green", "blue", "white"})
	if len(steps) != 8 {
		t.Fatalf("got %d steps, want 8", len(steps))
	}
	if steps[1].Values["blue"] != 255 {
		t.Errorf("blue step = %v", steps[1].Values)
	}
	if steps[6].Values["green"] != 255 {
		t.Errorf("all-100 step = %v", steps[6].Values)
	}
}

func TestNamedSequenceNoBlueFallsBack(t *testing.T) {
	steps := namedSequence([]string{"amber", "uv"})
	// White and red steps drop out; blue steps retarget the first channel.
	for _, s := range steps {
		if s.Name == "White 100%" || s.Name == "Red 100%" {
			t.Errorf("step %q should have been dropped", s.Name)
		}
		if s.Name == "Blue 100%" && s.Values["amber"] != 255 {
			t.Errorf("blue fallback = %v", s.Values)
		}
	}
}

func TestNamedSequenceEmpty(t *testing.T) {
	if steps := namedSequence(nil); steps != nil {
		t.Errorf("expected nil for no channels, got %v", steps)
	}
}
