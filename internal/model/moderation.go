package model

import (
	"time"
)

// 审核动作
const (
	ModerationActionApprove  = "APPROVE"
	ModerationActionReject   = "REJECT"
	ModerationActionMarkSpam = "MARK_SPAM"
)

// ModerationRecord 审核记录，只追加不修改
type ModerationRecord struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	CommentID   int64     `gorm:"not null;index" json:"comment_id"`
	Action      string    `gorm:"size:20;not null" json:"action"`
	ModeratorID int64     `gorm:"not null;index" json:"moderator_id"`
	Reason      *string   `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ModerationRecord) TableName() string {
	return "moderation_records"
}
