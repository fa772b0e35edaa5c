package gateway

import (
	"encoding/json"
	"testing"
)

func TestCommandEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"status", StatusCommand(), `{"cmd":"status"}`},
		{"enable", EnableCommand(), `{"cmd":"enable"}`},
		{"blackout", BlackoutCommand(), `{"cmd":"blackout"}`},
		{"get", GetCommand("rack1/level1"), `{"cmd":"get","target":"rack1/level1"}`},
		{"set", SetCommand("rack1/level1", map[string]int{"red": 255}),
			`{"cmd":"set","target":"rack1/level1","values":{"red":255}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.cmd.Encode()
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Encode = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestLightDecode(t *testing.T) {
	raw := `{"channels":[{"name":"red"},{"name":"green"},{"name":"blue"}]}`
	var l Light
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	names := l.ChannelNames()
	if len(names) != 3 || names[0] != "red" || names[2] != "blue" {
		t.Errorf("ChannelNames = %v", names)
	}
}
