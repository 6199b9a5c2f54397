package dto

// ModerateCommentRequest 审核评论请求
type ModerateCommentRequest struct {
	Action string  `json:"action" binding:"required"`
	Reason *string `json:"reason,omitempty" binding:"omitempty,max=500"`
}

// ModerationResult 审核结果
type ModerationResult struct {
	Comment *CommentItem          `json:"comment"`
	Record  *ModerationRecordItem `json:"record"`
}

// ModerationRecordItem 审核记录项
type ModerationRecordItem struct {
	ID          int64   `json:"id"`
	CommentID   int64   `json:"comment_id"`
	Action      string  `json:"action"`
	ModeratorID int64   `json:"moderator_id"`
	Reason      *string `json:"reason,omitempty"`
	CreatedAt   string  `json:"created_at"`
}
