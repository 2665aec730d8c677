package main

import (
	"errors"
	"testing"
)

func TestFollowService_FollowUnfollow(t *testing.T) {
	testDB := wireTestServices(t)
	alice := registerTestUser(t, "alice")
	bob := registerTestUser(t, "bob")

	if err := followService.Follow(alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	if !followService.IsFollowing(alice.ID, bob.ID) {
		t.Errorf("Expected alice to follow bob")
	}
	if followService.IsFollowing(bob.ID, alice.ID) {
		t.Errorf("Follow should not be symmetric")
	}

	// Following twice leaves the counters consistent.
	if err := followService.Follow(alice.ID, bob.ID); err != nil {
		t.Fatalf("Repeat follow should be a no-op: %v", err)
	}

	var followed User
	testDB.First(&followed, "id = ?", bob.ID)
	if followed.FollowersCount != 1 {
		t.Errorf("Expected followers_count 1, got %d", followed.FollowersCount)
	}
	var follower User
	testDB.First(&follower, "id = ?", alice.ID)
	if follower.FollowingCount != 1 {
		t.Errorf("Expected following_count 1, got %d", follower.FollowingCount)
	}

	followers, err := followService.GetFollowers(bob.ID)
	if err != nil {
		t.Fatalf("GetFollowers failed: %v", err)
	}
	if len(followers) != 1 || followers[0].Username != "alice" {
		t.Errorf("Followers listing wrong")
	}

	if err := followService.Unfollow(alice.ID, bob.ID); err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}
	if followService.IsFollowing(alice.ID, bob.ID) {
		t.Errorf("Expected unfollow to remove the edge")
	}
	testDB.First(&followed, "id = ?", bob.ID)
	if followed.FollowersCount != 0 {
		t.Errorf("Expected followers_count back to 0, got %d", followed.FollowersCount)
	}
}

func TestFollowService_SelfFollowRejected(t *testing.T) {
	wireTestServices(t)
	alice := registerTestUser(t, "alice")

	if err := followService.Follow(alice.ID, alice.ID); !errors.Is(err, ErrSelfFollow) {
		t.Errorf("Expected ErrSelfFollow, got %v", err)
	}
}
