package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// timestampLayout is ISO-8601 with millisecond precision, always UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timestampLayout) }

// Inbound message types.
const (
	TypeIdentify     = "identify"
	TypeAuthenticate = "authenticate"
	TypeSubscribe    = "subscribe"
	TypeUnsubscribe  = "unsubscribe"
	TypePing         = "ping"
)

// Outbound message types.
const (
	TypeConnectionEstablished   = "connection_established"
	TypeIdentificationConfirmed = "identification_confirmed"
	TypeAuthenticationSuccess   = "authentication_success"
	TypeAuthenticationFailed    = "authentication_failed"
	TypeSubscriptionConfirmed   = "subscription_confirmed"
	TypeSubscriptionFailed      = "subscription_failed"
	TypeUnsubscriptionConfirmed = "unsubscription_confirmed"
	TypePong                    = "pong"
	TypeError                   = "error"
	TypeServerShutdown          = "server_shutdown"
)

// ErrMalformedMessage is returned for input that is not a JSON object with a type.
var ErrMalformedMessage = errors.New("invalid message format")

// UnknownTypeError reports a well-formed message with an unrecognized type.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown message type: %s", e.Type)
}

// ClientMessage is the closed set of messages a client may send.
type ClientMessage interface{ clientMessage() }

type IdentifyMessage struct {
	ClientType string
	UserID     string
}

type AuthenticateMessage struct {
	Token string
}

type SubscribeMessage struct {
	Module string
}

type UnsubscribeMessage struct {
	Module string
}

type PingMessage struct{}

func (IdentifyMessage) clientMessage()     {}
func (AuthenticateMessage) clientMessage() {}
func (SubscribeMessage) clientMessage()    {}
func (UnsubscribeMessage) clientMessage()  {}
func (PingMessage) clientMessage()         {}

// inboundFrame accepts both the legacy field names (clientType, module) and
// the generic ones (role, topic).
type inboundFrame struct {
	Type       string `json:"type"`
	ClientType string `json:"clientType"`
	Role       string `json:"role"`
	UserID     string `json:"userId"`
	Token      string `json:"token"`
	Module     string `json:"module"`
	Topic      string `json:"topic"`
}

// DecodeClientMessage parses one inbound frame. It returns ErrMalformedMessage
// for unparseable input and *UnknownTypeError for an unrecognized type.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, ErrMalformedMessage
	}
	if f.Type == "" {
		return nil, ErrMalformedMessage
	}

	switch f.Type {
	case TypeIdentify:
		return IdentifyMessage{ClientType: firstNonEmpty(f.ClientType, f.Role), UserID: f.UserID}, nil
	case TypeAuthenticate:
		return AuthenticateMessage{Token: f.Token}, nil
	case TypeSubscribe:
		return SubscribeMessage{Module: firstNonEmpty(f.Module, f.Topic)}, nil
	case TypeUnsubscribe:
		return UnsubscribeMessage{Module: firstNonEmpty(f.Module, f.Topic)}, nil
	case TypePing:
		return PingMessage{}, nil
	}
	return nil, &UnknownTypeError{Type: f.Type}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ServerMessage is the closed set of messages the server sends. Every variant
// renders itself into the shared wire envelope.
type ServerMessage interface {
	frame() outboundFrame
}

type outboundFrame struct {
	Type             string  `json:"type"`
	ClientID         string  `json:"clientId,omitempty"`
	AvailableModules []Topic `json:"availableModules,omitempty"`
	ServerTime       string  `json:"serverTime,omitempty"`
	ClientType       string  `json:"clientType,omitempty"`
	UserID           string  `json:"userId,omitempty"`
	Role             Role    `json:"role,omitempty"`
	Module           Topic   `json:"module,omitempty"`
	Topic            Topic   `json:"topic,omitempty"`
	Message          string  `json:"message,omitempty"`
	Data             any     `json:"data,omitempty"`
	Timestamp        string  `json:"timestamp"`
}

type ConnectionEstablished struct {
	ClientID   string
	Topics     []Topic
	ServerTime time.Time
}

type IdentificationConfirmed struct {
	ClientType Role
	UserID     string
}

type AuthenticationSuccess struct {
	UserID string
	Role   Role
}

type AuthenticationFailed struct {
	Message string
}

type SubscriptionConfirmed struct {
	Module Topic
}

type SubscriptionFailed struct {
	Module  string
	Message string
	Topics  []Topic
}

type UnsubscriptionConfirmed struct {
	Module Topic
}

type Pong struct {
	ServerTime time.Time
}

type ErrorMessage struct {
	Message string
}

type ServerShutdown struct {
	Message string
}

func (m ConnectionEstablished) frame() outboundFrame {
	return outboundFrame{
		Type:             TypeConnectionEstablished,
		ClientID:         m.ClientID,
		AvailableModules: m.Topics,
		ServerTime:       formatTime(m.ServerTime),
	}
}

func (m IdentificationConfirmed) frame() outboundFrame {
	return outboundFrame{Type: TypeIdentificationConfirmed, ClientType: string(m.ClientType), UserID: m.UserID}
}

func (m AuthenticationSuccess) frame() outboundFrame {
	return outboundFrame{Type: TypeAuthenticationSuccess, UserID: m.UserID, Role: m.Role}
}

func (m AuthenticationFailed) frame() outboundFrame {
	return outboundFrame{Type: TypeAuthenticationFailed, Message: m.Message}
}

func (m SubscriptionConfirmed) frame() outboundFrame {
	return outboundFrame{Type: TypeSubscriptionConfirmed, Module: m.Module}
}

func (m SubscriptionFailed) frame() outboundFrame {
	return outboundFrame{
		Type:             TypeSubscriptionFailed,
		Module:           Topic(m.Module),
		Message:          m.Message,
		AvailableModules: m.Topics,
	}
}

func (m UnsubscriptionConfirmed) frame() outboundFrame {
	return outboundFrame{Type: TypeUnsubscriptionConfirmed, Module: m.Module}
}

func (m Pong) frame() outboundFrame {
	return outboundFrame{Type: TypePong, ServerTime: formatTime(m.ServerTime)}
}

func (m ErrorMessage) frame() outboundFrame {
	return outboundFrame{Type: TypeError, Message: m.Message}
}

func (m ServerShutdown) frame() outboundFrame {
	return outboundFrame{Type: TypeServerShutdown, Message: m.Message}
}

// EventKind is the category of a domain event.
type EventKind int

const (
	KindNewRecord EventKind = iota
	KindStatusChanged
	KindDeleted
	KindResponseCreated
)

// EventType returns the wire type name for kind on topic, e.g. new_booking or
// quote_status_update.
func EventType(kind EventKind, topic Topic) string {
	switch kind {
	case KindNewRecord:
		return "new_" + topic.Singular()
	case KindStatusChanged:
		return topic.Singular() + "_status_update"
	case KindDeleted:
		return topic.Singular() + "_deleted"
	case KindResponseCreated:
		return "response_created"
	}
	panic(fmt.Sprintf("realtime: unhandled event kind %d", kind))
}

// Event is a domain notification. It is never persisted.
type Event struct {
	Type      string
	Topic     Topic
	Payload   any
	Timestamp time.Time
}

func (e Event) frame() outboundFrame {
	f := outboundFrame{Type: e.Type, Module: e.Topic, Topic: e.Topic, Data: e.Payload}
	if !e.Timestamp.IsZero() {
		f.Timestamp = formatTime(e.Timestamp)
	}
	return f
}

// Encode renders msg as a JSON frame. now stamps messages that carry no
// timestamp of their own.
func Encode(msg ServerMessage, now time.Time) ([]byte, error) {
	f := msg.frame()
	if f.Timestamp == "" {
		f.Timestamp = formatTime(now)
	}
	return json.Marshal(f)
}
