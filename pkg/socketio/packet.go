package socketio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Engine.IO v4 packet types (first byte of every websocket text frame).
const (
	engineOpen    byte = '0'
	engineClose   byte = '1'
	enginePing    byte = '2'
	enginePong    byte = '3'
	engineMessage byte = '4'
	engineUpgrade byte = '5'
	engineNoop    byte = '6'
)

// Socket.IO v5 packet types, carried inside an Engine.IO message.
const (
	PacketConnect      byte = '0'
	PacketDisconnect   byte = '1'
	PacketEvent        byte = '2'
	PacketAck          byte = '3'
	PacketConnectError byte = '4'
)

var errEmptyFrame = errors.New("socketio: empty frame")

// Handshake is the Engine.IO open payload.
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// Packet is a decoded Socket.IO packet.
type Packet struct {
	Type      byte
	Namespace string
	ID        *int
	Data      json.RawMessage
}

func splitEngine(frame []byte) (byte, []byte, error) {
	if len(frame) == 0 {
		return 0, nil, errEmptyFrame
	}
	return frame[0], frame[1:], nil
}

// decodePacket parses "<type>[/nsp,][id][json]".
func decodePacket(b []byte) (Packet, error) {
	if len(b) == 0 {
		return Packet{}, errEmptyFrame
	}
	p := Packet{Type: b[0], Namespace: "/"}
	if p.Type < PacketConnect || p.Type > '6' {
		return Packet{}, fmt.Errorf("socketio: unknown packet type %q", p.Type)
	}
	rest := b[1:]

	// binary attachments count ("51-...") is not supported
	if p.Type == '5' || p.Type == '6' {
		return Packet{}, fmt.Errorf("socketio: binary packets are not supported")
	}

	if len(rest) > 0 && rest[0] == '/' {
		end := bytes.IndexByte(rest, ',')
		if end < 0 {
			p.Namespace = string(rest)
			return p, nil
		}
		p.Namespace = string(rest[:end])
		rest = rest[end+1:]
	}

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i > 0 {
		id, err := strconv.Atoi(string(rest[:i]))
		if err != nil {
			return Packet{}, fmt.Errorf("socketio: bad ack id: %w", err)
		}
		p.ID = &id
		rest = rest[i:]
	}

	if len(rest) > 0 {
		if !json.Valid(rest) {
			return Packet{}, fmt.Errorf("socketio: invalid packet payload")
		}
		p.Data = json.RawMessage(rest)
	}
	return p, nil
}

// Event splits an EVENT packet into its name and the first argument.
// Events without arguments yield a nil payload.
func (p Packet) Event() (string, json.RawMessage, error) {
	if p.Type != PacketEvent {
		return "", nil, fmt.Errorf("socketio: packet type %q is not an event", p.Type)
	}
	var args []json.RawMessage
	if err := json.Unmarshal(p.Data, &args); err != nil {
		return "", nil, fmt.Errorf("socketio: decode event args: %w", err)
	}
	if len(args) == 0 {
		return "", nil, fmt.Errorf("socketio: event without name")
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", nil, fmt.Errorf("socketio: event name: %w", err)
	}
	if len(args) == 1 {
		return name, nil, nil
	}
	return name, args[1], nil
}

// encodeEvent builds the websocket frame for an event on the default namespace.
func encodeEvent(event string, args ...any) ([]byte, error) {
	parts := make([]any, 0, len(args)+1)
	parts = append(parts, event)
	parts = append(parts, args...)
	body, err := json.Marshal(parts)
	if err != nil {
		return nil, fmt.Errorf("socketio: encode %s: %w", event, err)
	}
	frame := make([]byte, 0, len(body)+2)
	frame = append(frame, engineMessage, PacketEvent)
	return append(frame, body...), nil
}

func connectFrame() []byte    { return []byte{engineMessage, PacketConnect} }
func disconnectFrame() []byte { return []byte{engineMessage, PacketDisconnect} }
func pongFrame() []byte       { return []byte{enginePong} }

// connectErrorMessage pulls the message out of a CONNECT_ERROR payload.
func connectErrorMessage(data json.RawMessage) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	if len(data) > 0 {
		return string(data)
	}
	return "connect error"
}
