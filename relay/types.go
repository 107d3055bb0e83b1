package relay

import "encoding/json"

//ChatMessageEvent is the only event the relay rebroadcasts
const ChatMessageEvent = "chat-message"

//Envelope frames every message on the wire. Data stays raw so chat payloads
//pass through the relay untouched.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

//broadcast carries a raw frame through the hub together with its sender,
//so the sender can be excluded from delivery
type broadcast struct {
	sender  *Connection
	payload []byte
}
