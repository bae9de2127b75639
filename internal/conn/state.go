package conn

import "encoding/json"

type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
	Degraded
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Degraded:
		return "degraded"
	default:
		return "unknown"
	}
}

type Transport int

const (
	TransportPrimary Transport = iota
	TransportFallback
)

func (t Transport) String() string {
	if t == TransportFallback {
		return "fallback"
	}
	return "primary"
}

// Mode is the connection cascade position. It only ever moves forward:
// ModePrimary -> ModeFallback -> ModeDegraded.
type Mode int

const (
	ModePrimary Mode = iota
	ModeFallback
	ModeDegraded
)

func (m Mode) String() string {
	switch m {
	case ModePrimary:
		return "primary"
	case ModeFallback:
		return "fallback"
	default:
		return "degraded"
	}
}

// DegradedText is the persistent status shown once realtime is given up.
const DegradedText = "HTTP fallback"

type State struct {
	Status    Status    `json:"-"`
	Transport Transport `json:"-"`
	Mode      Mode      `json:"-"`
	Text      string    `json:"text,omitempty"`
}

func (s State) Connected() bool { return s.Status == Connected }

type stateJSON struct {
	Status    string `json:"status"`
	Transport string `json:"transport"`
	Mode      string `json:"mode"`
	Text      string `json:"text,omitempty"`
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		Status:    s.Status.String(),
		Transport: s.Transport.String(),
		Mode:      s.Mode.String(),
		Text:      s.Text,
	})
}
