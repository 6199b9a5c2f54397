package repository

import (
	"gorm.io/gorm"

	"github.com/mkblog/comment_server/internal/model"
)

type ModerationRecordRepository struct {
	db *gorm.DB
}

func NewModerationRecordRepository(db *gorm.DB) *ModerationRecordRepository {
	return &ModerationRecordRepository{db: db}
}

// GetByID 根据 ID 获取审核记录
func (r *ModerationRecordRepository) GetByID(id int64) (*model.ModerationRecord, error) {
	var record model.ModerationRecord
	err := r.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByCommentID 评论的完整审核历史，时间正序
func (r *ModerationRecordRepository) ListByCommentID(commentID int64) ([]*model.ModerationRecord, error) {
	var records []*model.ModerationRecord
	err := r.db.Where("comment_id = ?", commentID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

// CountByCommentID 评论的审核记录数
func (r *ModerationRecordRepository) CountByCommentID(commentID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.ModerationRecord{}).
		Where("comment_id = ?", commentID).
		Count(&count).Error
	return count, err
}
