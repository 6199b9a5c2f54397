package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/mkblog/comment_server/internal/model"
)

var fixtureSeq int64

func nextSeq() int64 {
	fixtureSeq++
	return fixtureSeq
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	seq := nextSeq()
	email := fmt.Sprintf("test_%d_%d@example.com", time.Now().UnixNano(), seq)
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Username:      fmt.Sprintf("testuser_%d_%d", time.Now().UnixNano()%100000, seq),
		Email:         &email,
		PasswordHash:  &passwordHash,
		Role:          model.RoleUser,
		EmailVerified: true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithRole 设置角色
func WithRole(role string) func(*model.User) {
	return func(u *model.User) {
		u.Role = role
	}
}

// TestModerator 创建审核员用户
func TestModerator(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	return TestUser(t, db, WithRole(model.RoleModerator))
}

// TestComment 创建测试评论（默认 PENDING）
func TestComment(t *testing.T, db *gorm.DB, userID int64, articleID, content string, opts ...func(*model.Comment)) *model.Comment {
	t.Helper()

	comment := &model.Comment{
		UserID:    userID,
		ArticleID: articleID,
		Content:   content,
		Status:    model.CommentStatusPending,
	}

	for _, opt := range opts {
		opt(comment)
	}

	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("Failed to create test comment: %v", err)
	}

	return comment
}

// TestReply 创建测试回复
func TestReply(t *testing.T, db *gorm.DB, userID int64, articleID string, parentID int64, content string, opts ...func(*model.Comment)) *model.Comment {
	t.Helper()

	comment := &model.Comment{
		UserID:    userID,
		ArticleID: articleID,
		ParentID:  &parentID,
		Content:   content,
		Status:    model.CommentStatusPending,
	}

	for _, opt := range opts {
		opt(comment)
	}

	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("Failed to create test reply: %v", err)
	}

	return comment
}

// WithStatus 设置评论状态
func WithStatus(status string) func(*model.Comment) {
	return func(c *model.Comment) {
		c.Status = status
		if status != model.CommentStatusPending {
			now := time.Now()
			c.ModeratedAt = &now
		}
	}
}

// WithCreatedAt 设置创建时间（用于排序相关测试）
func WithCreatedAt(at time.Time) func(*model.Comment) {
	return func(c *model.Comment) {
		c.CreatedAt = at
	}
}

// TestModerationRecord 创建测试审核记录
func TestModerationRecord(t *testing.T, db *gorm.DB, commentID, moderatorID int64, action string) *model.ModerationRecord {
	t.Helper()

	record := &model.ModerationRecord{
		CommentID:   commentID,
		Action:      action,
		ModeratorID: moderatorID,
	}

	if err := db.Create(record).Error; err != nil {
		t.Fatalf("Failed to create test moderation record: %v", err)
	}

	return record
}
