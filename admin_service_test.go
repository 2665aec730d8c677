package main

import (
	"errors"
	"testing"
)

func TestAdminService_AdminFlag(t *testing.T) {
	wireTestServices(t)
	user := registerTestUser(t, "mod")

	if adminService.IsAdmin(user.ID) {
		t.Errorf("Fresh user should not be an admin")
	}
	if err := adminService.MakeAdmin(user.ID); err != nil {
		t.Fatalf("MakeAdmin failed: %v", err)
	}
	if !adminService.IsAdmin(user.ID) {
		t.Errorf("Expected admin flag to stick")
	}
	if err := adminService.RemoveAdmin(user.ID); err != nil {
		t.Fatalf("RemoveAdmin failed: %v", err)
	}
	if adminService.IsAdmin(user.ID) {
		t.Errorf("Expected admin flag to be removed")
	}
	if err := adminService.RemoveAdmin(user.ID); err == nil {
		t.Errorf("Removing a non-admin should error")
	}
}

func TestAdminService_ModerationQueue(t *testing.T) {
	wireTestServices(t)
	admin := registerTestUser(t, "mod")
	paste := createTestPaste(t, nil, "reported", "content")

	for i := 0; i < 4; i++ {
		if err := pasteService.FlagPaste(paste.ID, nil, "spam"); err != nil {
			t.Fatalf("Flag failed: %v", err)
		}
	}

	flagged, err := adminService.FlaggedPastes()
	if err != nil {
		t.Fatalf("FlaggedPastes failed: %v", err)
	}
	if len(flagged) != 1 || flagged[0].FlagCount != 4 {
		t.Fatalf("Expected the reported paste in the queue")
	}

	if err := adminService.ClearPasteFlags(paste.ID, admin.ID); err != nil {
		t.Fatalf("ClearPasteFlags failed: %v", err)
	}
	loaded, err := pasteService.GetVisible(paste.ID)
	if err != nil {
		t.Fatalf("Cleared paste should be visible: %v", err)
	}
	if loaded.FlagCount != 0 || pasteService.IsBlurred(loaded) {
		t.Errorf("Expected flags cleared and blur lifted")
	}

	if err := adminService.RemovePaste(paste.ID, admin.ID); err != nil {
		t.Fatalf("RemovePaste failed: %v", err)
	}
	if _, err := pasteService.GetVisible(paste.ID); !errors.Is(err, ErrPasteNotFound) {
		t.Errorf("Expected removed paste to be gone")
	}
	if err := adminService.RemovePaste(paste.ID, admin.ID); !errors.Is(err, ErrPasteNotFound) {
		t.Errorf("Removing again should report not found, got %v", err)
	}
}

func TestAdminService_FlaggedComments(t *testing.T) {
	wireTestServices(t)
	paste := createTestPaste(t, nil, "p", "content")
	comment, _ := socialService.AddComment(paste.ID, nil, "rude")

	if err := socialService.ReportComment(&comment.ID, nil, nil, "abuse", ""); err != nil {
		t.Fatalf("ReportComment failed: %v", err)
	}

	queue, err := adminService.FlaggedComments()
	if err != nil {
		t.Fatalf("FlaggedComments failed: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != comment.ID {
		t.Errorf("Expected the reported comment in the queue")
	}
}

func TestAdminService_SiteStats(t *testing.T) {
	wireTestServices(t)
	user := registerTestUser(t, "someone")
	createTestPaste(t, &user.ID, "a", "x")
	createTestPaste(t, &user.ID, "b", "y")

	stats, err := adminService.SiteStats()
	if err != nil {
		t.Fatalf("SiteStats failed: %v", err)
	}
	if stats["users"].(int64) != 1 {
		t.Errorf("Expected 1 user, got %v", stats["users"])
	}
	if stats["pastes"].(int64) != 2 {
		t.Errorf("Expected 2 pastes, got %v", stats["pastes"])
	}
}

func TestAdminService_DeleteUserCascades(t *testing.T) {
	testDB := wireTestServices(t)
	admin := registerTestUser(t, "mod")
	victim := registerTestUser(t, "victim")
	bystander := registerTestUser(t, "bystander")

	paste := createTestPaste(t, &victim.ID, "mine", "content")
	socialService.AddComment(paste.ID, &victim.ID, "my comment")
	followService.Follow(victim.ID, bystander.ID)
	messageService.Send(victim.ID, "bystander", "hi", "hello", nil)
	collectionService.CreateCollection(victim.ID, "stuff", "", true)

	if err := adminService.DeleteUser(victim.ID, admin.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	var count int64
	testDB.Model(&User{}).Where("id = ?", victim.ID).Count(&count)
	if count != 0 {
		t.Errorf("User row should be gone")
	}
	testDB.Model(&Paste{}).Where("user_id = ?", victim.ID).Count(&count)
	if count != 0 {
		t.Errorf("User pastes should be gone")
	}
	testDB.Model(&UserFollow{}).Where("follower_id = ?", victim.ID).Count(&count)
	if count != 0 {
		t.Errorf("Follow edges should be gone")
	}
	testDB.Model(&Message{}).Where("sender_id = ?", victim.ID).Count(&count)
	if count != 0 {
		t.Errorf("Messages should be gone")
	}

	// Unrelated accounts are untouched.
	if _, err := authService.GetUserByUsername("bystander"); err != nil {
		t.Errorf("Bystander should survive: %v", err)
	}
}
