package main

import (
	"strings"

	"gorm.io/gorm"
)

// MessageService handles threaded private messages between users.
type MessageService struct {
	db *gorm.DB
}

func NewMessageService(database *gorm.DB) *MessageService {
	return &MessageService{db: database}
}

// Send delivers a message. Replies inherit the thread of the message they
// answer; a fresh message roots its own thread.
func (s *MessageService) Send(senderID, recipientUsername, subject, content string, replyToID *uint) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidInput
	}

	var recipient User
	if err := s.db.Where("username = ?", recipientUsername).First(&recipient).Error; err != nil {
		return nil, ErrNotFound
	}
	if recipient.ID == senderID {
		return nil, ErrInvalidInput
	}

	msg := &Message{
		SenderID:    senderID,
		RecipientID: recipient.ID,
		Subject:     subject,
		Content:     content,
		ReplyToID:   replyToID,
	}

	if replyToID != nil {
		var parent Message
		if err := s.db.First(&parent, *replyToID).Error; err != nil {
			return nil, ErrNotFound
		}
		// Only participants may continue a conversation.
		if parent.SenderID != senderID && parent.RecipientID != senderID {
			return nil, ErrNotOwner
		}
		if parent.ThreadID != nil {
			msg.ThreadID = parent.ThreadID
		} else {
			msg.ThreadID = &parent.ID
		}
		if msg.Subject == "" {
			msg.Subject = parent.Subject
		}
	}

	if err := s.db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// Inbox lists messages received by a user, newest first.
func (s *MessageService) Inbox(userID string) ([]Message, error) {
	var messages []Message
	err := s.db.Preload("Sender").
		Where("recipient_id = ?", userID).
		Order("created_at DESC").Find(&messages).Error
	return messages, err
}

// Conversation returns a root message and all replies in order, if the viewer
// participates in it.
func (s *MessageService) Conversation(rootID uint, viewerID string) ([]Message, error) {
	var root Message
	if err := s.db.Preload("Sender").Preload("Recipient").First(&root, rootID).Error; err != nil {
		return nil, ErrNotFound
	}
	if root.SenderID != viewerID && root.RecipientID != viewerID {
		return nil, ErrNotFound
	}

	messages := []Message{root}
	var replies []Message
	if err := s.db.Preload("Sender").Preload("Recipient").
		Where("thread_id = ?", rootID).
		Order("created_at ASC").Find(&replies).Error; err != nil {
		return nil, err
	}
	return append(messages, replies...), nil
}

// MarkRead flags a received message as read.
func (s *MessageService) MarkRead(messageID uint, userID string) error {
	result := s.db.Model(&Message{}).
		Where("id = ? AND recipient_id = ?", messageID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MessageService) UnreadCount(userID string) int64 {
	var n int64
	s.db.Model(&Message{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&n)
	return n
}
