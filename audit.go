package main

import (
	"encoding/json"
	"log"

	"gorm.io/gorm"
)

// AuditLogger persists operational and security events. Writes are
// best-effort: a failed audit insert is logged but never fails the request.
type AuditLogger struct {
	db *gorm.DB
}

func NewAuditLogger(database *gorm.DB) *AuditLogger {
	return &AuditLogger{db: database}
}

func (a *AuditLogger) Log(event, category, subjectID string, metadata map[string]any) {
	a.write(event, category, subjectID, "info", "", metadata)
}

func (a *AuditLogger) LogSecurityEvent(event string, metadata map[string]any, severity string) {
	if severity == "" {
		severity = "warning"
	}
	a.write(event, "security", "", severity, "", metadata)
}

func (a *AuditLogger) write(event, category, subjectID, severity, ip string, metadata map[string]any) {
	meta := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			meta = string(b)
		}
		if ipVal, ok := metadata["ip"].(string); ok {
			ip = ipVal
		}
	}
	entry := &AuditLog{
		Event:     event,
		Category:  category,
		SubjectID: subjectID,
		Severity:  severity,
		Metadata:  meta,
		IPAddress: ip,
	}
	if err := a.db.Create(entry).Error; err != nil {
		log.Printf("audit log write failed: %v", err)
	}
}
