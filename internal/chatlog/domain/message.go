package domain

import (
	"fmt"
	"time"
)

// MessageType classifies the payload of a message. Non-text types keep an
// empty Text field; the media itself is not stored by this service.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeAudio    MessageType = "audio"
	TypeVideo    MessageType = "video"
	TypeDocument MessageType = "document"
)

// IsValid reports whether t is one of the closed set of message types.
func (t MessageType) IsValid() bool {
	switch t {
	case TypeText, TypeImage, TypeAudio, TypeVideo, TypeDocument:
		return true
	}
	return false
}

// MessageStatus is the delivery state of a message.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
	StatusReceived  MessageStatus = "received"
)

// IsValid reports whether s is one of the closed set of statuses.
func (s MessageStatus) IsValid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead, StatusFailed, StatusReceived:
		return true
	}
	return false
}

// UnknownContactName is stored when a batch carries no profile name for the
// contact.
const UnknownContactName = "unknown"

// SelfContactName labels rows the business itself sent.
const SelfContactName = "You"

// Message is the sole persisted entity: one chat message or one outgoing
// record, keyed uniquely by MessageID. ConversationID always identifies the
// non-business party of the thread, whichever direction the message went.
type Message struct {
	MessageID      string        `json:"messageId"`
	ConversationID string        `json:"conversationId"`
	Text           string        `json:"text"`
	Type           MessageType   `json:"messageType"`
	FromNumber     string        `json:"fromNumber"`
	ToNumber       string        `json:"toNumber"`
	ContactName    string        `json:"contactName"`
	Timestamp      int64         `json:"timestamp"` // milliseconds since epoch; the single ordering key
	IsOutgoing     bool          `json:"isOutgoing"`
	Status         MessageStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// NewMessage validates already-normalized fields and constructs a Message.
// This is the single validation boundary: upstream normalization must have
// resolved all ambiguity (fallback identities, default names) before calling.
func NewMessage(
	messageID string,
	conversationID string,
	text string,
	msgType MessageType,
	fromNumber string,
	toNumber string,
	contactName string,
	timestamp int64,
	isOutgoing bool,
	status MessageStatus,
) (*Message, error) {
	if messageID == "" {
		return nil, fmt.Errorf("%w: message id is required", ErrValidation)
	}
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversation id is required", ErrValidation)
	}
	if timestamp <= 0 {
		return nil, fmt.Errorf("%w: timestamp must be a positive integer, got %d", ErrValidation, timestamp)
	}
	if !msgType.IsValid() {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrValidation, msgType)
	}
	if status == "" {
		if isOutgoing {
			status = StatusSent
		} else {
			status = StatusReceived
		}
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if contactName == "" {
		contactName = UnknownContactName
	}

	now := time.Now().UTC()
	return &Message{
		MessageID:      messageID,
		ConversationID: conversationID,
		Text:           text,
		Type:           msgType,
		FromNumber:     fromNumber,
		ToNumber:       toNumber,
		ContactName:    contactName,
		Timestamp:      timestamp,
		IsOutgoing:     isOutgoing,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
