package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Inbound actions.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionSend        = "send"
	ActionMove        = "move"
)

// Frame is a message received from a client.
type Frame struct {
	Action  string          `json:"action" validate:"required,oneof=subscribe unsubscribe send move"`
	Topic   string          `json:"topic" validate:"required,max=64"`
	Message string          `json:"message,omitempty" validate:"max=2000"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var validate = validator.New()

func parseFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("malformed frame: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		return Frame{}, fmt.Errorf("invalid frame: %w", err)
	}
	return f, nil
}

// Outbound frames the endpoint produces itself. Everything else a client
// receives is an event payload taken from the bus.
type errorFrame struct {
	Kind    string `json:"kind"`
	Action  string `json:"action,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Message string `json:"message"`
}

type departureFrame struct {
	Kind  string `json:"kind"`
	Topic string `json:"topic"`
}

func encodeError(f Frame, err error) []byte {
	data, _ := json.Marshal(errorFrame{Kind: "error", Action: f.Action, Topic: f.Topic, Message: err.Error()})
	return data
}

func encodeDeparture(topic string) []byte {
	data, _ := json.Marshal(departureFrame{Kind: "departure", Topic: topic})
	return data
}
