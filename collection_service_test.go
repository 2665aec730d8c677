package main

import (
	"errors"
	"testing"
)

func TestCollectionService_Lifecycle(t *testing.T) {
	wireTestServices(t)
	user := registerTestUser(t, "curator")
	other := registerTestUser(t, "visitor")
	paste := createTestPaste(t, &user.ID, "snippet", "content")

	collection, err := collectionService.CreateCollection(user.ID, "Go snippets", "useful bits", true)
	if err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}

	if err := collectionService.AddPaste(collection.ID, user.ID, paste.ID); err != nil {
		t.Fatalf("AddPaste failed: %v", err)
	}
	// Adding again is a no-op, not an error.
	if err := collectionService.AddPaste(collection.ID, user.ID, paste.ID); err != nil {
		t.Fatalf("Duplicate AddPaste should be idempotent: %v", err)
	}

	_, pastes, err := collectionService.GetCollection(collection.ID, &other.ID)
	if err != nil {
		t.Fatalf("GetCollection failed: %v", err)
	}
	if len(pastes) != 1 {
		t.Errorf("Expected 1 member paste, got %d", len(pastes))
	}

	// Only the owner may modify it.
	if err := collectionService.AddPaste(collection.ID, other.ID, paste.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Expected ErrNotOwner, got %v", err)
	}

	if err := collectionService.RemovePaste(collection.ID, user.ID, paste.ID); err != nil {
		t.Fatalf("RemovePaste failed: %v", err)
	}
	_, pastes, _ = collectionService.GetCollection(collection.ID, &user.ID)
	if len(pastes) != 0 {
		t.Errorf("Expected empty collection after removal")
	}
}

func TestCollectionService_PrivateVisibility(t *testing.T) {
	wireTestServices(t)
	owner := registerTestUser(t, "owner")
	other := registerTestUser(t, "other")

	collection, err := collectionService.CreateCollection(owner.ID, "drafts", "", false)
	if err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}

	if _, _, err := collectionService.GetCollection(collection.ID, &other.ID); err == nil {
		t.Errorf("Expected private collection to be hidden from others")
	}
	if _, _, err := collectionService.GetCollection(collection.ID, nil); err == nil {
		t.Errorf("Expected private collection to be hidden from anonymous viewers")
	}
	if _, _, err := collectionService.GetCollection(collection.ID, &owner.ID); err != nil {
		t.Errorf("Owner should see their private collection: %v", err)
	}
}

func TestCollectionService_DeleteDetachesPastes(t *testing.T) {
	testDB := wireTestServices(t)
	user := registerTestUser(t, "curator")

	collection, _ := collectionService.CreateCollection(user.ID, "doomed", "", true)
	paste, err := pasteService.CreatePaste(CreatePasteParams{
		UserID: &user.ID, Content: "member", IsPublic: true, CollectionID: &collection.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := collectionService.AddPaste(collection.ID, user.ID, paste.ID); err != nil {
		t.Fatalf("AddPaste failed: %v", err)
	}

	if err := collectionService.DeleteCollection(collection.ID, user.ID); err != nil {
		t.Fatalf("DeleteCollection failed: %v", err)
	}

	// The paste survives, detached.
	var survivor Paste
	if err := testDB.First(&survivor, paste.ID).Error; err != nil {
		t.Fatalf("Member paste should survive collection deletion: %v", err)
	}
	if survivor.CollectionID != nil {
		t.Errorf("Expected collection_id to be cleared")
	}
}
