package repositories

import (
	"database/sql"
	"fmt"

	"capsulelink/internal/models"
)

type MessageRepository interface {
	Create(msg *models.Message) error
	GetByID(id int64) (*models.Message, error)
	ListByReceiver(receiverID int64, mtype models.MessageType) ([]*models.Message, error)
	// MarkRead flips is_read on the receiver's own message in one statement;
	// returns (nil, nil) when no such message belongs to the receiver.
	MarkRead(id, receiverID int64) (*models.Message, error)
	Delete(id int64) error
}

type messageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{DB: db}
}

const messageColumns = `
	id, receiver_id, type, sender_name, content, unlock_date, is_read, created_at
`

func scanMessage(scan func(dest ...any) error) (*models.Message, error) {
	m := &models.Message{}
	var unlock sql.NullTime
	err := scan(
		&m.ID, &m.ReceiverID, &m.Type, &m.SenderName, &m.Content, &unlock, &m.IsRead, &m.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if unlock.Valid {
		t := unlock.Time
		m.UnlockDate = &t
	}
	return m, nil
}

func (r *messageRepository) Create(msg *models.Message) error {
	const q = `
		INSERT INTO messages (receiver_id, type, sender_name, content, unlock_date)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`
	err := r.DB.QueryRow(q,
		msg.ReceiverID,
		msg.Type,
		msg.SenderName,
		msg.Content,
		msg.UnlockDate,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("message create: %w", err)
	}
	return nil
}

func (r *messageRepository) GetByID(id int64) (*models.Message, error) {
	q := `SELECT` + messageColumns + `FROM messages WHERE id = $1`
	return scanMessage(r.DB.QueryRow(q, id).Scan)
}

// ListByReceiver returns the receiver's messages of one type, newest first.
func (r *messageRepository) ListByReceiver(receiverID int64, mtype models.MessageType) ([]*models.Message, error) {
	q := `
		SELECT` + messageColumns + `
		FROM messages
		WHERE receiver_id = $1 AND type = $2
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.DB.Query(q, receiverID, mtype)
	if err != nil {
		return nil, fmt.Errorf("message list: %w", err)
	}
	defer rows.Close()

	var res []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *messageRepository) MarkRead(id, receiverID int64) (*models.Message, error) {
	q := `
		UPDATE messages
		SET is_read = TRUE
		WHERE id = $1 AND receiver_id = $2
		RETURNING` + messageColumns
	return scanMessage(r.DB.QueryRow(q, id, receiverID).Scan)
}

func (r *messageRepository) Delete(id int64) error {
	_, err := r.DB.Exec(`DELETE FROM messages WHERE id=$1`, id)
	return err
}
