// Package sink persists audit events. Record is fire-and-forget: it runs
// after a state transition commits and a failed write only makes noise in the
// logs, never in the caller.
package sink

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"loanflow/internal/domain/audit"
)

type AuditLog struct {
	ID        uint64    `gorm:"primaryKey;column:id"`
	EventID   string    `gorm:"column:event_id;type:char(36);not null;uniqueIndex:ux_audit_event_id"`
	EventType string    `gorm:"column:event_type;type:varchar(32);not null;index:idx_audit_event_type"`
	SubjectID string    `gorm:"column:subject_id;type:varchar(64);not null;index:idx_audit_subject"`
	Details   string    `gorm:"column:details;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type DBSink struct{ db *gorm.DB }

var _ audit.Sink = (*DBSink)(nil)

func NewDBSink(db *gorm.DB) *DBSink { return &DBSink{db: db} }

func (s *DBSink) Record(ctx context.Context, eventType, subjectID, details string) {
	row := &AuditLog{
		EventID:   uuid.NewString(),
		EventType: eventType,
		SubjectID: subjectID,
		Details:   details,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		log.Printf("audit: dropping event %s for %s: %v", eventType, subjectID, err)
	}
}
