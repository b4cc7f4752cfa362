package app

import "github.com/convohub/chatlog-gateway/internal/chatlog/domain"

// Identity is the resolved conversation identity and direction of one raw
// message entry.
type Identity struct {
	ConversationID string
	ContactName    string
	ToNumber       string
	IsOutgoing     bool
}

// ResolveIdentity decides which logical contact a message entry belongs to
// and whether the business sent it. It never fails: ambiguity always degrades
// to a documented fallback so that every entry resolves to some identity.
//
// Rules:
//   - sender equals the business address: outgoing; the batch's first contact
//     supplies the conversation identity, and the row is labeled "You".
//   - otherwise: incoming; the conversation identity is the exactly-matching
//     contact, else the batch's first contact, else the sender itself.
//
// An empty businessNumber means direction cannot be established, so entries
// are treated as inbound.
func ResolveIdentity(entry domain.MessageEntry, contacts []domain.Contact, businessNumber string) Identity {
	if businessNumber != "" && entry.From == businessNumber {
		// Outgoing: the contact list, not the sender, identifies the thread.
		contactID := entry.From // degenerate fallback when the batch has no contacts
		if len(contacts) > 0 {
			contactID = contacts[0].WaID
		}
		return Identity{
			ConversationID: contactID,
			ContactName:    domain.SelfContactName,
			ToNumber:       contactID,
			IsOutgoing:     true,
		}
	}

	contact := matchContact(entry.From, contacts)

	conversationID := entry.From // self-fallback: the sender is its own identity
	contactName := domain.UnknownContactName
	if contact != nil {
		conversationID = contact.WaID
		if contact.Profile.Name != "" {
			contactName = contact.Profile.Name
		}
	}

	return Identity{
		ConversationID: conversationID,
		ContactName:    contactName,
		ToNumber:       businessNumber,
		IsOutgoing:     false,
	}
}

// matchContact prefers an exact wa_id match, then falls back to the first
// contact in batch order. Returns nil when the batch carries no contacts.
func matchContact(from string, contacts []domain.Contact) *domain.Contact {
	for i := range contacts {
		if contacts[i].WaID == from {
			return &contacts[i]
		}
	}
	if len(contacts) > 0 {
		return &contacts[0]
	}
	return nil
}
