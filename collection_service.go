package main

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CollectionService struct {
	db *gorm.DB
}

func NewCollectionService(database *gorm.DB) *CollectionService {
	return &CollectionService{db: database}
}

func (s *CollectionService) CreateCollection(userID, name, description string, isPublic bool) (*Collection, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}
	collection := &Collection{UserID: userID, Name: name, Description: description, IsPublic: isPublic}
	if err := s.db.Create(collection).Error; err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *CollectionService) EditCollection(id uint, userID, name, description string, isPublic bool) error {
	collection, err := s.ownedCollection(id, userID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}
	collection.Name = name
	collection.Description = description
	collection.IsPublic = isPublic
	return s.db.Save(collection).Error
}

// DeleteCollection removes the collection and its memberships; member pastes
// themselves survive.
func (s *CollectionService) DeleteCollection(id uint, userID string) error {
	if _, err := s.ownedCollection(id, userID); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&CollectionPaste{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&Paste{}).Where("collection_id = ?", id).
			Update("collection_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&Collection{}, id).Error
	})
}

// AddPaste is idempotent: re-adding a member is a no-op thanks to the unique
// (collection_id, paste_id) index and the on-conflict-ignore insert.
func (s *CollectionService) AddPaste(collectionID uint, userID string, pasteID uint) error {
	if _, err := s.ownedCollection(collectionID, userID); err != nil {
		return err
	}
	var paste Paste
	if err := s.db.First(&paste, pasteID).Error; err != nil {
		return ErrPasteNotFound
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&CollectionPaste{CollectionID: collectionID, PasteID: pasteID}).Error
}

func (s *CollectionService) RemovePaste(collectionID uint, userID string, pasteID uint) error {
	if _, err := s.ownedCollection(collectionID, userID); err != nil {
		return err
	}
	return s.db.Where("collection_id = ? AND paste_id = ?", collectionID, pasteID).
		Delete(&CollectionPaste{}).Error
}

func (s *CollectionService) GetUserCollections(userID string) ([]Collection, error) {
	var collections []Collection
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&collections).Error
	return collections, err
}

// GetCollection loads a collection and its member pastes. Private collections
// are visible only to their owner.
func (s *CollectionService) GetCollection(id uint, viewerID *string) (*Collection, []Paste, error) {
	var collection Collection
	if err := s.db.Preload("User").First(&collection, id).Error; err != nil {
		return nil, nil, ErrNotFound
	}
	if !collection.IsPublic && (viewerID == nil || *viewerID != collection.UserID) {
		return nil, nil, ErrNotFound
	}

	var pastes []Paste
	err := s.db.Preload("User").
		Joins("JOIN collection_pastes ON collection_pastes.paste_id = pastes.id").
		Where("collection_pastes.collection_id = ?", id).
		Order("collection_pastes.created_at DESC").
		Find(&pastes).Error
	if err != nil {
		return nil, nil, err
	}
	return &collection, pastes, nil
}

func (s *CollectionService) ownedCollection(id uint, userID string) (*Collection, error) {
	var collection Collection
	if err := s.db.First(&collection, id).Error; err != nil {
		return nil, ErrNotFound
	}
	if collection.UserID != userID {
		return nil, ErrNotOwner
	}
	return &collection, nil
}
