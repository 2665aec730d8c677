package main

import (
	"testing"
)

func TestAuditLogger_Writes(t *testing.T) {
	testDB := setupTestDB(t)
	logger := NewAuditLogger(testDB)

	logger.Log("paste_created", "paste", "17", map[string]any{"ip": "10.0.0.1", "size": 42})
	logger.LogSecurityEvent("login_failed_invalid_password", map[string]any{"ip": "10.0.0.2"}, "")

	var entries []AuditLog
	if err := testDB.Order("id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	if entries[0].Category != "paste" || entries[0].SubjectID != "17" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[0].IPAddress != "10.0.0.1" {
		t.Errorf("IP should be lifted from metadata, got %q", entries[0].IPAddress)
	}

	if entries[1].Category != "security" {
		t.Errorf("Security events land in the security category")
	}
	if entries[1].Severity != "warning" {
		t.Errorf("Empty severity should default to warning, got %q", entries[1].Severity)
	}
}
