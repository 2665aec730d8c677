package main

import (
	"strings"

	"gorm.io/gorm"
)

// Discussion thread categories form a closed set.
var discussionCategories = []string{"Q&A", "Tip", "Idea", "Bug", "General"}

func validDiscussionCategory(category string) bool {
	for _, c := range discussionCategories {
		if c == category {
			return true
		}
	}
	return false
}

type DiscussionService struct {
	db     *gorm.DB
	pastes *PasteService
}

func NewDiscussionService(database *gorm.DB, pastes *PasteService) *DiscussionService {
	return &DiscussionService{db: database, pastes: pastes}
}

// CreateThread opens a discussion on a paste. The thread and its first post
// are created as a pair or not at all.
func (s *DiscussionService) CreateThread(pasteID uint, userID, title, category, firstPost string) (*DiscussionThread, error) {
	paste, err := s.pastes.GetVisible(pasteID)
	if err != nil {
		return nil, err
	}
	if paste.ZeroKnowledge {
		return nil, ErrZeroKnowledge
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(firstPost) == "" {
		return nil, ErrInvalidInput
	}
	if !validDiscussionCategory(category) {
		return nil, ErrInvalidInput
	}

	thread := &DiscussionThread{PasteID: pasteID, UserID: userID, Title: title, Category: category}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(thread).Error; err != nil {
			return err
		}
		post := &DiscussionPost{ThreadID: thread.ID, UserID: userID, Content: firstPost}
		return tx.Create(post).Error
	})
	if err != nil {
		return nil, err
	}
	return thread, nil
}

func (s *DiscussionService) AddPost(threadID uint, userID, content string) (*DiscussionPost, error) {
	var thread DiscussionThread
	if err := s.db.First(&thread, threadID).Error; err != nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidInput
	}

	post := &DiscussionPost{ThreadID: threadID, UserID: userID, Content: content}
	if err := s.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost soft-deletes; only the post author may do it.
func (s *DiscussionService) DeletePost(postID uint, userID string) error {
	var post DiscussionPost
	if err := s.db.First(&post, postID).Error; err != nil {
		return ErrNotFound
	}
	if post.UserID != userID {
		return ErrNotOwner
	}
	return s.db.Model(&DiscussionPost{}).Where("id = ?", postID).
		Update("is_deleted", true).Error
}

func (s *DiscussionService) GetThreads(pasteID uint) ([]DiscussionThread, error) {
	var threads []DiscussionThread
	err := s.db.Preload("User").
		Where("paste_id = ?", pasteID).
		Order("created_at DESC").Find(&threads).Error
	return threads, err
}

func (s *DiscussionService) GetPosts(threadID uint) ([]DiscussionPost, error) {
	var posts []DiscussionPost
	err := s.db.Preload("User").
		Where("thread_id = ? AND is_deleted = ?", threadID, false).
		Order("created_at ASC").Find(&posts).Error
	return posts, err
}

func (s *DiscussionService) ThreadCount(pasteID uint) int64 {
	var n int64
	s.db.Model(&DiscussionThread{}).Where("paste_id = ?", pasteID).Count(&n)
	return n
}
