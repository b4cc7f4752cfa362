package domain

// ConversationSummary is a derived, read-time projection: one row per distinct
// contact, computed fresh from the message log on every query. It is never
// persisted or incrementally maintained.
type ConversationSummary struct {
	ConversationID  string `json:"conversationId"`
	ContactName     string `json:"contactName"`
	PhoneNumber     string `json:"phoneNumber"`
	LastMessage     string `json:"lastMessage"`
	LastMessageTime int64  `json:"lastMessageTime"`
	IsOutgoing      bool   `json:"isOutgoing"` // direction of the most recent message
}
