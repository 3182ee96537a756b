package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"capsulelink/internal/models"
	"capsulelink/internal/repositories"
)

var (
	ErrReceiverNotFound = errors.New("receiver not found")
	ErrNotAccepting     = errors.New("receiver not accepting messages")
	ErrEmptyContent     = errors.New("content can't be empty")
	ErrMessageNotFound  = errors.New("message not found")
	ErrMessageForbidden = errors.New("message owned by another user")
)

const (
	minContentLen = 10
	maxContentLen = 500
	maxSenderName = 30
	defaultSender = "Anonymous"
)

// MessageService persists capsules and governs their visibility. A delayed
// message is Sealed until its unlock date and Unsealed after; the transition
// is recomputed from the clock on every read, never stored.
type MessageService interface {
	// Submit accepts an anonymous message addressed to a receiver's public
	// username. No sender authentication by design.
	Submit(receiverUsername string, req models.SubmitMessageRequest) (*models.Message, error)
	ListByReceiver(receiverID int64, mtype models.MessageType) ([]*models.Message, error)
	// MarkRead flags the receiver's own message as read and returns it,
	// still redacted while sealed.
	MarkRead(messageID, receiverID int64) (*models.Message, error)
	Delete(messageID, receiverID int64) error
}

type messageService struct {
	messages repositories.MessageRepository
	users    repositories.UserRepository
	now      func() time.Time
}

func NewMessageService(messages repositories.MessageRepository, users repositories.UserRepository) MessageService {
	return &messageService{
		messages: messages,
		users:    users,
		now:      time.Now,
	}
}

func (s *messageService) Submit(receiverUsername string, req models.SubmitMessageRequest) (*models.Message, error) {
	receiver, err := s.users.GetByUsername(receiverUsername)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrReceiverNotFound
	}
	if !receiver.IsAcceptingMessage {
		return nil, ErrNotAccepting
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) < minContentLen {
		return nil, &ValidationError{Field: "content", Message: "must be at least 10 characters"}
	}
	if len(content) > maxContentLen {
		return nil, &ValidationError{Field: "content", Message: "cannot exceed 500 characters"}
	}

	senderName := strings.TrimSpace(req.SenderName)
	if senderName == "" {
		senderName = defaultSender
	}
	if len(senderName) > maxSenderName {
		return nil, &ValidationError{Field: "sender_name", Message: "name is too long"}
	}

	mtype := req.Type
	if mtype == "" {
		mtype = models.MessageTypeNormal
	}

	msg := &models.Message{
		ReceiverID: receiver.ID,
		Type:       mtype,
		SenderName: senderName,
		Content:    content,
	}

	switch mtype {
	case models.MessageTypeNormal:
		// unlock date ignored for instant messages
	case models.MessageTypeDelayed:
		if req.UnlockDate == nil {
			return nil, &ValidationError{Field: "unlock_date", Message: "unlock date is required for delayed messages"}
		}
		if !req.UnlockDate.After(s.now()) {
			return nil, &ValidationError{Field: "unlock_date", Message: "unlock date must be in the future"}
		}
		t := *req.UnlockDate
		msg.UnlockDate = &t
	default:
		return nil, &ValidationError{Field: "type", Message: "must be normal or delayed"}
	}

	if err := s.messages.Create(msg); err != nil {
		return nil, err
	}
	log.Printf("[message][submit] id=%d receiver_id=%d type=%s", msg.ID, msg.ReceiverID, msg.Type)

	// the sender just wrote the content, no redaction on the echo
	msg.IsUnlocked = msg.Unlocked(s.now())
	return msg, nil
}

func (s *messageService) ListByReceiver(receiverID int64, mtype models.MessageType) ([]*models.Message, error) {
	if mtype != models.MessageTypeNormal && mtype != models.MessageTypeDelayed {
		return nil, &ValidationError{Field: "type", Message: "must be normal or delayed"}
	}
	msgs, err := s.messages.ListByReceiver(receiverID, mtype)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		s.applySeal(m)
	}
	return msgs, nil
}

func (s *messageService) MarkRead(messageID, receiverID int64) (*models.Message, error) {
	msg, err := s.messages.MarkRead(messageID, receiverID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	s.applySeal(msg)
	return msg, nil
}

func (s *messageService) Delete(messageID, receiverID int64) error {
	msg, err := s.messages.GetByID(messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.ReceiverID != receiverID {
		return ErrMessageForbidden
	}
	if err := s.messages.Delete(messageID); err != nil {
		return err
	}
	log.Printf("[message][delete] id=%d receiver_id=%d", messageID, receiverID)
	return nil
}

// applySeal computes the derived unlock state and redacts sealed content.
// The rule is uniform: read state never reveals a sealed message.
func (s *messageService) applySeal(m *models.Message) {
	m.IsUnlocked = m.Unlocked(s.now())
	if !m.IsUnlocked {
		m.Content = models.SealedContentPlaceholder
	}
}
