package model

import (
	"time"
)

// 评论状态
const (
	CommentStatusPending  = "PENDING"
	CommentStatusApproved = "APPROVED"
	CommentStatusRejected = "REJECTED"
	CommentStatusSpam     = "SPAM"
)

type Comment struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	UserID      int64      `gorm:"not null;index" json:"user_id"`
	ArticleID   string     `gorm:"size:100;not null;index" json:"article_id"`
	ParentID    *int64     `gorm:"index" json:"parent_id,omitempty"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Status      string     `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	ModeratedAt *time.Time `json:"moderated_at,omitempty"`
	IsNotified  bool       `gorm:"default:false" json:"is_notified"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 关联
	User    *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Replies []*Comment `gorm:"-" json:"replies,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}
