package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/mkblog/comment_server/internal/model"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create 创建评论
func (r *CommentRepository) Create(comment *model.Comment) error {
	return r.db.Create(comment).Error
}

// GetByID 根据 ID 获取评论
func (r *CommentRepository) GetByID(id int64) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.Where("id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetByIDWithUser 获取评论及作者信息
func (r *CommentRepository) GetByIDWithUser(id int64) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.Preload("User").Where("id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Moderate 审核写入：更新评论状态并追加审核记录，
// 两个写入在同一事务中，要么都生效要么都回滚
func (r *CommentRepository) Moderate(commentID int64, status string, moderatedAt time.Time, record *model.ModerationRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Comment{}).Where("id = ?", commentID).Updates(map[string]interface{}{
			"status":       status,
			"moderated_at": moderatedAt,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Create(record).Error
	})
}

// ListPending 待审核队列，按创建时间先进先出
func (r *CommentRepository) ListPending(page, pageSize int) ([]*model.Comment, int64, error) {
	var comments []*model.Comment
	var total int64

	query := r.db.Model(&model.Comment{}).
		Preload("User").
		Where("status = ?", model.CommentStatusPending)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at ASC").Offset(offset).Limit(pageSize).Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

// ListApprovedByArticleID 文章的已通过一级评论，最新的在前
func (r *CommentRepository) ListApprovedByArticleID(articleID string, page, pageSize int) ([]*model.Comment, int64, error) {
	var comments []*model.Comment
	var total int64

	query := r.db.Model(&model.Comment{}).
		Preload("User").
		Where("article_id = ? AND parent_id IS NULL AND status = ?", articleID, model.CommentStatusApproved)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

// GetApprovedRepliesByParentIDs 批量获取已通过的回复，时间正序
func (r *CommentRepository) GetApprovedRepliesByParentIDs(parentIDs []int64) ([]*model.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	var replies []*model.Comment
	err := r.db.Preload("User").
		Where("parent_id IN ? AND status = ?", parentIDs, model.CommentStatusApproved).
		Order("created_at ASC").
		Find(&replies).Error
	return replies, err
}

// MarkNotified 标记评论已发送通知
func (r *CommentRepository) MarkNotified(id int64) error {
	return r.db.Model(&model.Comment{}).Where("id = ?", id).
		Update("is_notified", true).Error
}

// CountByArticleID 文章的已通过评论数（含回复）
func (r *CommentRepository) CountByArticleID(articleID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Comment{}).
		Where("article_id = ? AND status = ?", articleID, model.CommentStatusApproved).
		Count(&count).Error
	return count, err
}
