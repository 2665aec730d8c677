package main

import (
	"errors"

	"gorm.io/gorm"
)

// AdminService backs the moderation and analytics dashboard.
type AdminService struct {
	db       *gorm.DB
	settings *SettingsStore
	audit    *AuditLogger
}

func NewAdminService(database *gorm.DB, settings *SettingsStore, audit *AuditLogger) *AdminService {
	return &AdminService{db: database, settings: settings, audit: audit}
}

func (s *AdminService) IsAdmin(userID string) bool {
	var admin Admin
	err := s.db.Where("user_id = ?", userID).First(&admin).Error
	return err == nil
}

func (s *AdminService) MakeAdmin(userID string) error {
	admin := &Admin{UserID: userID}
	return s.db.Create(admin).Error
}

func (s *AdminService) RemoveAdmin(userID string) error {
	result := s.db.Where("user_id = ?", userID).Delete(&Admin{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("user is not an admin")
	}
	return nil
}

func (s *AdminService) GetAllUsers() ([]User, error) {
	var users []User
	if err := s.db.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// FlaggedPastes lists pastes with at least one flag, most-flagged first, for
// the moderation tab.
func (s *AdminService) FlaggedPastes() ([]Paste, error) {
	var pastes []Paste
	err := s.db.Preload("User").
		Where("flag_count > 0").
		Order("flag_count DESC, last_modified DESC").
		Find(&pastes).Error
	return pastes, err
}

// FlaggedComments lists reported comments awaiting review.
func (s *AdminService) FlaggedComments() ([]Comment, error) {
	var comments []Comment
	err := s.db.Preload("User").
		Where("is_flagged = ? AND is_deleted = ?", true, false).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

// ClearPasteFlags resets a paste's moderation counter after review.
func (s *AdminService) ClearPasteFlags(pasteID uint, adminID string) error {
	result := s.db.Model(&Paste{}).Where("id = ?", pasteID).Update("flag_count", 0)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPasteNotFound
	}
	s.audit.Log("paste_flags_cleared", "moderation", itoa(pasteID), map[string]any{"admin_id": adminID})
	return nil
}

// RemovePaste is the moderator hard delete.
func (s *AdminService) RemovePaste(pasteID uint, adminID string) error {
	result := s.db.Delete(&Paste{}, pasteID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPasteNotFound
	}
	s.audit.Log("paste_removed_by_admin", "moderation", itoa(pasteID), map[string]any{"admin_id": adminID})
	return nil
}

// SiteStats aggregates the analytics tab counters.
func (s *AdminService) SiteStats() (map[string]any, error) {
	stats := map[string]any{}
	counts := []struct {
		name  string
		model any
	}{
		{"users", &User{}},
		{"pastes", &Paste{}},
		{"comments", &Comment{}},
		{"collections", &Collection{}},
		{"discussion_threads", &DiscussionThread{}},
		{"messages", &Message{}},
	}
	for _, c := range counts {
		var n int64
		if err := s.db.Model(c.model).Count(&n).Error; err != nil {
			return nil, err
		}
		stats[c.name] = n
	}

	var totalViews int64
	if err := s.db.Model(&PasteView{}).Count(&totalViews).Error; err != nil {
		return nil, err
	}
	stats["paste_views"] = totalViews
	return stats, nil
}

func (s *AdminService) GetUserStats(userID string) (map[string]any, error) {
	var user User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, errors.New("user not found")
	}

	var pasteCount int64
	s.db.Model(&Paste{}).Where("user_id = ?", userID).Count(&pasteCount)

	var commentCount int64
	s.db.Model(&Comment{}).Where("user_id = ?", userID).Count(&commentCount)

	return map[string]any{
		"username":      user.Username,
		"created_at":    user.CreatedAt,
		"paste_count":   pasteCount,
		"comment_count": commentCount,
		"followers":     user.FollowersCount,
		"following":     user.FollowingCount,
	}, nil
}

// DeleteUser removes an account and everything keyed to it.
func (s *AdminService) DeleteUser(userID string, adminID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, scoped := range []any{&Session{}, &APIKey{}, &Paste{}, &Comment{}, &CommentReply{}, &Favorite{}, &Collection{}} {
			if err := tx.Where("user_id = ?", userID).Delete(scoped).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("follower_id = ? OR following_id = ?", userID, userID).
			Delete(&UserFollow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sender_id = ? OR recipient_id = ?", userID, userID).
			Delete(&Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&Admin{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&User{}, "id = ?", userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("user not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Log("user_deleted_by_admin", "moderation", userID, map[string]any{"admin_id": adminID})
	return nil
}
