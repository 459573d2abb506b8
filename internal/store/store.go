package store

import (
	"context"
	"time"
)

// Role describes what a connected identity is allowed to do.
// Guests exist only in memory; they are never persisted.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// RoomKind selects between the authenticated dashboard chat and the
// anonymous support widget.
type RoomKind string

const (
	RoomKindLive   RoomKind = "live"
	RoomKindBubble RoomKind = "bubble"
)

// Valid reports whether k is a known room kind.
func (k RoomKind) Valid() bool {
	return k == RoomKindLive || k == RoomKindBubble
}

// MessageStatus tracks the lifecycle of a message. Transitions move
// forward only: sent -> {edited, deleted, read}. A deleted message is
// never resurrected by later bulk updates.
type MessageStatus string

const (
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusEdited  MessageStatus = "edited"
	MessageStatusDeleted MessageStatus = "deleted"
	MessageStatusRead    MessageStatus = "read"
)

// User represents a registered account (customer or back-office admin).
type User struct {
	ID           int64
	Email        string
	DisplayName  string
	PasswordHash string
	Role         Role
	Locale       string
	CreatedAt    time.Time
}

// Conversation is the persisted identity of a chat room.
// OwnerUserID is nil for bubble conversations opened by guests.
type Conversation struct {
	ID          int64
	Kind        RoomKind
	OwnerUserID *int64
	CreatedAt   time.Time
}

// Message is a persisted chat message.
// SenderID is nil for guest senders; RecipientID is the conversation's
// owning user, when there is one.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       *int64
	RecipientID    *int64
	Body           string
	SenderIsAdmin  bool
	Status         MessageStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Notification is one persisted notification row. Fan-out to several
// recipients creates one row per recipient, never a shared row.
type Notification struct {
	ID              int64
	RecipientUserID int64
	Type            string
	Title           string
	Body            string
	Link            string
	IsRead          bool
	CreatedAt       time.Time
}

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser creates a new account with a hashed password.
	CreateUser(ctx context.Context, email, displayName, passwordHash string, role Role) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListAdminUserIDs returns the IDs of every admin account.
	ListAdminUserIDs(ctx context.Context) ([]int64, error)

	// UpdateUserLocale stores the user's preferred locale.
	UpdateUserLocale(ctx context.Context, id int64, locale string) error
}

// ConversationStore handles conversation persistence.
type ConversationStore interface {
	// CreateConversation creates a conversation of the given kind.
	// ownerID may be nil for guest-opened bubble conversations.
	CreateConversation(ctx context.Context, kind RoomKind, ownerID *int64) (*Conversation, error)

	// GetConversation retrieves a conversation by ID.
	GetConversation(ctx context.Context, id int64) (*Conversation, error)

	// DeleteConversation removes a conversation and cascades the
	// deletion of its messages.
	DeleteConversation(ctx context.Context, id int64) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists a message and returns the stored row with
	// server-assigned ID and timestamps.
	CreateMessage(ctx context.Context, msg *Message) (*Message, error)

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// UpdateMessage replaces the body and status of a message and
	// returns the stored row.
	UpdateMessage(ctx context.Context, id int64, body string, status MessageStatus) (*Message, error)

	// UpdateMessageStatus changes only the status of a message.
	UpdateMessageStatus(ctx context.Context, id int64, status MessageStatus) (*Message, error)

	// MarkConversationRead flips every message in the conversation
	// authored by the given side (admin or not) to read, skipping
	// messages that are already read or deleted. Returns the number of
	// rows updated.
	MarkConversationRead(ctx context.Context, conversationID int64, senderIsAdmin bool) (int64, error)

	// CountUnreadMessages counts messages authored by the given side
	// that are neither read nor deleted.
	CountUnreadMessages(ctx context.Context, conversationID int64, senderIsAdmin bool) (int64, error)
}

// NotificationStore handles notification persistence.
type NotificationStore interface {
	// CreateNotification persists one notification row.
	CreateNotification(ctx context.Context, n *Notification) (*Notification, error)

	// ListNotifications returns the most recent notifications for a
	// recipient, newest first.
	ListNotifications(ctx context.Context, recipientID int64, limit int) ([]*Notification, error)

	// MarkNotificationsRead flips all of a recipient's notifications to
	// read. Idempotent.
	MarkNotificationsRead(ctx context.Context, recipientID int64) error

	// CountUnreadNotifications counts unread notifications for a
	// recipient.
	CountUnreadNotifications(ctx context.Context, recipientID int64) (int64, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ConversationStore
	MessageStore
	NotificationStore

	// Close closes the underlying database connection.
	Close() error
}
