package main

import (
	"gorm.io/gorm"
)

// FollowService maintains the follow graph and the denormalized counters on
// both sides of each edge. Edge changes and counter refreshes always share a
// transaction.
type FollowService struct {
	db *gorm.DB
}

func NewFollowService(database *gorm.DB) *FollowService {
	return &FollowService{db: database}
}

func (s *FollowService) Follow(followerID, followingID string) error {
	if followerID == followingID {
		return ErrSelfFollow
	}
	var target User
	if err := s.db.First(&target, "id = ?", followingID).Error; err != nil {
		return ErrNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		edge := &UserFollow{FollowerID: followerID, FollowingID: followingID}
		if err := tx.Create(edge).Error; err != nil {
			// Unique edge index: already following is a no-op.
			return nil
		}
		return refreshFollowCounts(tx, followerID, followingID)
	})
}

func (s *FollowService) Unfollow(followerID, followingID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&UserFollow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return refreshFollowCounts(tx, followerID, followingID)
	})
}

func refreshFollowCounts(tx *gorm.DB, followerID, followingID string) error {
	var following int64
	if err := tx.Model(&UserFollow{}).Where("follower_id = ?", followerID).
		Count(&following).Error; err != nil {
		return err
	}
	if err := tx.Model(&User{}).Where("id = ?", followerID).
		Update("following_count", following).Error; err != nil {
		return err
	}

	var followers int64
	if err := tx.Model(&UserFollow{}).Where("following_id = ?", followingID).
		Count(&followers).Error; err != nil {
		return err
	}
	return tx.Model(&User{}).Where("id = ?", followingID).
		Update("followers_count", followers).Error
}

func (s *FollowService) IsFollowing(followerID, followingID string) bool {
	var n int64
	s.db.Model(&UserFollow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n)
	return n > 0
}

func (s *FollowService) GetFollowers(userID string) ([]User, error) {
	var users []User
	err := s.db.
		Joins("JOIN user_follows ON user_follows.follower_id = users.id").
		Where("user_follows.following_id = ?", userID).
		Order("user_follows.created_at DESC").
		Find(&users).Error
	return users, err
}

func (s *FollowService) GetFollowing(userID string) ([]User, error) {
	var users []User
	err := s.db.
		Joins("JOIN user_follows ON user_follows.following_id = users.id").
		Where("user_follows.follower_id = ?", userID).
		Order("user_follows.created_at DESC").
		Find(&users).Error
	return users, err
}
