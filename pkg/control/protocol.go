package control

import (
	"encoding/json"
	"fmt"

	"github.com/blaubaer/remote-ptt/pkg/ptt"
)

type RequestKind uint8

const (
	RequestUnrecognized = RequestKind(0)
	RequestOn           = RequestKind(1)
	RequestOff          = RequestKind(2)
)

func (this RequestKind) String() string {
	switch this {
	case RequestUnrecognized:
		return "unrecognized"
	case RequestOn:
		return "on"
	case RequestOff:
		return "off"
	default:
		return fmt.Sprintf("illegal-request-kind-%d", this)
	}
}

// Request is a decoded client message.
type Request struct {
	Kind RequestKind
	// Reason explains why a request was not recognized.
	Reason string
}

func (this Request) IsRecognized() bool {
	return this.Kind != RequestUnrecognized
}

// Active is true for RequestOn.
func (this Request) Active() bool {
	return this.Kind == RequestOn
}

// ProtocolError describes a client message that could not be understood.
type ProtocolError struct {
	Reason  string
	Payload string
}

func (this *ProtocolError) Error() string {
	return fmt.Sprintf("malformed client message (%s): %s", this.Reason, this.Payload)
}

type inboundMessage struct {
	Action *string `json:"action"`
	State  *string `json:"state"`
}

type outboundMessage struct {
	Status ptt.Status `json:"status"`
}

const actionPtt = "ptt"

// DecodeRequest decodes one client message. It never fails; anything it
// cannot understand is returned as RequestUnrecognized with a reason.
func DecodeRequest(payload []byte) Request {
	var msg inboundMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return unrecognized("invalid json: %v", err)
	}
	if msg.Action == nil {
		return unrecognized("missing action")
	}
	if *msg.Action != actionPtt {
		return unrecognized("unknown action %q", *msg.Action)
	}
	if msg.State == nil {
		return unrecognized("missing state")
	}
	switch *msg.State {
	case "on":
		return Request{Kind: RequestOn}
	case "off":
		return Request{Kind: RequestOff}
	default:
		return unrecognized("unknown state %q", *msg.State)
	}
}

func unrecognized(msg string, args ...any) Request {
	return Request{
		Kind:   RequestUnrecognized,
		Reason: fmt.Sprintf(msg, args...),
	}
}

func EncodeStatus(status ptt.Status) ([]byte, error) {
	return json.Marshal(outboundMessage{status})
}
