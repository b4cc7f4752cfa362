package domain

// Meta-standard WhatsApp webhook wire types. Documents arrive wrapped in a
// metaData envelope:
//
//	{ metaData: { entry: [ { changes: [ { value: { metadata, contacts,
//	  messages, statuses } } ] } ] } }
//
// Every field below is optional on the wire; absence handling is the
// normalizer's job, not the decoder's.

// WebhookDocument is the top-level parsed form of one webhook delivery.
type WebhookDocument struct {
	MetaData *WebhookMetaData `json:"metaData"`
}

// WebhookMetaData wraps the entry list.
type WebhookMetaData struct {
	Entry []WebhookEntry `json:"entry"`
}

// WebhookEntry represents one business account entry.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange wraps a single change notification.
type WebhookChange struct {
	Field string       `json:"field"`
	Value *ChangeValue `json:"value"`
}

// ChangeValue holds the message and status data of one change.
type ChangeValue struct {
	MessagingProduct string          `json:"messaging_product"`
	Metadata         *ChangeMetadata `json:"metadata"`
	Contacts         []Contact       `json:"contacts"`
	Messages         []MessageEntry  `json:"messages"`
	Statuses         []StatusEntry   `json:"statuses"`
}

// ChangeMetadata describes the business number the change belongs to.
type ChangeMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact is a known party attached to the batch, with its display name.
type Contact struct {
	WaID    string         `json:"wa_id"`
	Profile ContactProfile `json:"profile"`
}

// ContactProfile carries the contact's display name.
type ContactProfile struct {
	Name string `json:"name"`
}

// MessageEntry is one raw message inside a webhook document.
type MessageEntry struct {
	ID        string       `json:"id"`
	From      string       `json:"from"`
	Type      string       `json:"type"`
	Text      *TextContent `json:"text"`
	Timestamp string       `json:"timestamp"` // seconds since epoch, as a string on the wire
}

// TextContent holds a text message body.
type TextContent struct {
	Body string `json:"body"`
}

// StatusEntry is one raw delivery-status update inside a webhook document.
// ID is the primary message reference; MetaMsgID is the fallback.
type StatusEntry struct {
	ID        string `json:"id"`
	MetaMsgID string `json:"meta_msg_id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// WebhookBatch is the normalized set of message/status entries extracted from
// one raw document, plus the shared context needed to resolve identities.
type WebhookBatch struct {
	BusinessNumber string
	Contacts       []Contact
	Messages       []MessageEntry
	Statuses       []StatusEntry
}
