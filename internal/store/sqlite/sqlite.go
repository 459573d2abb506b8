package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/streamvista/chathub/internal/store"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function
// after the schema is applied. Useful for tests to seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	if setup != nil {
		if err := setup(s.db); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			email         TEXT NOT NULL UNIQUE,
			display_name  TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'user',
			locale        TEXT NOT NULL DEFAULT 'en',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			kind          TEXT NOT NULL,
			owner_user_id INTEGER REFERENCES users(id),
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			sender_id       INTEGER,
			recipient_id    INTEGER,
			body            TEXT NOT NULL,
			sender_is_admin BOOLEAN NOT NULL DEFAULT 0,
			status          TEXT NOT NULL DEFAULT 'sent',
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			recipient_user_id INTEGER NOT NULL,
			type              TEXT NOT NULL,
			title             TEXT NOT NULL,
			body              TEXT NOT NULL DEFAULT '',
			link              TEXT NOT NULL DEFAULT '',
			is_read           BOOLEAN NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_user_id, is_read)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new account with a hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, email, displayName, passwordHash string, role store.Role) (*store.User, error) {
	query := `
		INSERT INTO users (email, display_name, password_hash, role)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, email, displayName, passwordHash, string(role))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, email, display_name, password_hash, role, locale, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `
		SELECT id, email, display_name, password_hash, role, locale, created_at
		FROM users
		WHERE email = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var u store.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &role, &u.Locale, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = store.Role(role)
	return &u, nil
}

// ListAdminUserIDs returns the IDs of every admin account.
func (s *SQLiteStore) ListAdminUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users WHERE role = 'admin' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan admin id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateUserLocale stores the user's preferred locale.
func (s *SQLiteStore) UpdateUserLocale(ctx context.Context, id int64, locale string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET locale = ? WHERE id = ?`, locale, id)
	if err != nil {
		return fmt.Errorf("update locale: %w", err)
	}
	return nil
}

// ==== ConversationStore implementation ====

// CreateConversation creates a conversation of the given kind.
func (s *SQLiteStore) CreateConversation(ctx context.Context, kind store.RoomKind, ownerID *int64) (*store.Conversation, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (kind, owner_user_id) VALUES (?, ?)`,
		string(kind), nullableID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetConversation(ctx, id)
}

// GetConversation retrieves a conversation by ID.
func (s *SQLiteStore) GetConversation(ctx context.Context, id int64) (*store.Conversation, error) {
	var c store.Conversation
	var kind string
	var owner sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, owner_user_id, created_at FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &kind, &owner, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	c.Kind = store.RoomKind(kind)
	if owner.Valid {
		c.OwnerUserID = &owner.Int64
	}
	return &c, nil
}

// DeleteConversation removes a conversation and its messages.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}

	return tx.Commit()
}

// ==== MessageStore implementation ====

// CreateMessage persists a message and returns the stored row.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	query := `
		INSERT INTO messages (conversation_id, sender_id, recipient_id, body, sender_is_admin, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.ConversationID, nullableID(msg.SenderID), nullableID(msg.RecipientID),
		msg.Body, msg.SenderIsAdmin, string(store.MessageStatusSent))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetMessage(ctx, id)
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, recipient_id, body, sender_is_admin, status, created_at, updated_at
		FROM messages
		WHERE id = ?
	`
	var m store.Message
	var sender, recipient sql.NullInt64
	var status string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.ConversationID, &sender, &recipient, &m.Body,
		&m.SenderIsAdmin, &status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	if sender.Valid {
		m.SenderID = &sender.Int64
	}
	if recipient.Valid {
		m.RecipientID = &recipient.Int64
	}
	m.Status = store.MessageStatus(status)
	return &m, nil
}

// UpdateMessage replaces the body and status of a message.
func (s *SQLiteStore) UpdateMessage(ctx context.Context, id int64, body string, status store.MessageStatus) (*store.Message, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE messages SET body = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		body, string(status), id)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.GetMessage(ctx, id)
}

// UpdateMessageStatus changes only the status of a message.
func (s *SQLiteStore) UpdateMessageStatus(ctx context.Context, id int64, status store.MessageStatus) (*store.Message, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE messages SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), id)
	if err != nil {
		return nil, fmt.Errorf("update message status: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.GetMessage(ctx, id)
}

// MarkConversationRead flips unread messages from one side to read.
// Deleted messages are excluded so a bulk read never resurrects them.
func (s *SQLiteStore) MarkConversationRead(ctx context.Context, conversationID int64, senderIsAdmin bool) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE messages
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE conversation_id = ?
		  AND sender_is_admin = ?
		  AND status NOT IN (?, ?)
	`, string(store.MessageStatusRead), conversationID, senderIsAdmin,
		string(store.MessageStatusRead), string(store.MessageStatusDeleted))
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	return result.RowsAffected()
}

// CountUnreadMessages counts unread, non-deleted messages from one side.
func (s *SQLiteStore) CountUnreadMessages(ctx context.Context, conversationID int64, senderIsAdmin bool) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM messages
		WHERE conversation_id = ?
		  AND sender_is_admin = ?
		  AND status NOT IN (?, ?)
	`, conversationID, senderIsAdmin,
		string(store.MessageStatusRead), string(store.MessageStatusDeleted)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

// ==== NotificationStore implementation ====

// CreateNotification persists one notification row.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *store.Notification) (*store.Notification, error) {
	query := `
		INSERT INTO notifications (recipient_user_id, type, title, body, link)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, n.RecipientUserID, n.Type, n.Title, n.Body, n.Link)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getNotification(ctx, id)
}

func (s *SQLiteStore) getNotification(ctx context.Context, id int64) (*store.Notification, error) {
	var n store.Notification
	err := s.db.QueryRowContext(ctx, `
		SELECT id, recipient_user_id, type, title, body, link, is_read, created_at
		FROM notifications
		WHERE id = ?
	`, id).Scan(&n.ID, &n.RecipientUserID, &n.Type, &n.Title, &n.Body, &n.Link, &n.IsRead, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	return &n, nil
}

// ListNotifications returns the most recent notifications for a recipient.
func (s *SQLiteStore) ListNotifications(ctx context.Context, recipientID int64, limit int) ([]*store.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient_user_id, type, title, body, link, is_read, created_at
		FROM notifications
		WHERE recipient_user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var list []*store.Notification
	for rows.Next() {
		var n store.Notification
		if err := rows.Scan(&n.ID, &n.RecipientUserID, &n.Type, &n.Title, &n.Body, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}

// MarkNotificationsRead flips all of a recipient's notifications to read.
func (s *SQLiteStore) MarkNotificationsRead(ctx context.Context, recipientID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE recipient_user_id = ? AND is_read = 0`, recipientID)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// CountUnreadNotifications counts unread notifications for a recipient.
func (s *SQLiteStore) CountUnreadNotifications(ctx context.Context, recipientID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_user_id = ? AND is_read = 0`, recipientID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
