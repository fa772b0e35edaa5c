// Package gateway defines the DMX gateway's JSON command surface and a small
// REST client for it. The same command shape travels over both the HTTP API
// (POST /api) and the WebSocket endpoint.
package gateway

import "encoding/json"

// Command is one gateway control message.
type Command struct {
	Cmd    string         `json:"cmd"`
	Target string         `json:"target,omitempty"`
	Values map[string]int `json:"values,omitempty"`
}

// StatusCommand asks the gateway for its current status.
func StatusCommand() Command {
	return Command{Cmd: "status"}
}

// SetCommand sets channel values on one light.
func SetCommand(target string, values map[string]int) Command {
	return Command{Cmd: "set", Target: target, Values: values}
}

// GetCommand asks for one light's current channel values.
func GetCommand(target string) Command {
	return Command{Cmd: "get", Target: target}
}

// BlackoutCommand drives every channel to zero.
func BlackoutCommand() Command {
	return Command{Cmd: "blackout"}
}

// EnableCommand enables DMX output.
func EnableCommand() Command {
	return Command{Cmd: "enable"}
}

// Encode marshals the command for the wire.
func (c Command) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// Channel describes one DMX channel of a light.
type Channel struct {
	Name string `json:"name"`
}

// Light describes one fixture as returned by GET /api/lights.
type Light struct {
	Channels []Channel `json:"channels"`
}

// ChannelNames returns the light's channel names in declaration order.
func (l Light) ChannelNames() []string {
	names := make([]string, len(l.Channels))
	for i, ch := range l.Channels {
		names[i] = ch.Name
	}
	return names
}
