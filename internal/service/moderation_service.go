package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/mkblog/comment_server/config"
	"github.com/mkblog/comment_server/internal/model"
	"github.com/mkblog/comment_server/internal/model/dto"
	"github.com/mkblog/comment_server/internal/pkg/contentfilter"
	"github.com/mkblog/comment_server/internal/pkg/notify"
	"github.com/mkblog/comment_server/internal/pkg/pubsub"
	"github.com/mkblog/comment_server/internal/pkg/ratelimit"
	"github.com/mkblog/comment_server/internal/repository"
)

var (
	ErrCommentNotFound    = errors.New("评论不存在")
	ErrParentNotFound     = errors.New("父评论不存在")
	ErrParentNotInArticle = errors.New("父评论不属于该文章")
	ErrInvalidAction      = errors.New("无效的审核动作")
)

// RateLimitError 提交过于频繁，RetryAfter 为建议等待时长
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("请等待 %d 秒后再发表评论", int64(e.RetryAfter.Seconds()+0.999))
}

// 审核动作到终态的映射
var actionStatus = map[string]string{
	model.ModerationActionApprove:  model.CommentStatusApproved,
	model.ModerationActionReject:   model.CommentStatusRejected,
	model.ModerationActionMarkSpam: model.CommentStatusSpam,
}

// ModerationService 评论生命周期：创建（待审核）、审核决定、读取
type ModerationService struct {
	commentRepo *repository.CommentRepository
	recordRepo  *repository.ModerationRecordRepository
	userRepo    *repository.UserRepository
	filter      *contentfilter.Filter
	limiter     ratelimit.Limiter
	notifyQueue *notify.Queue
	publisher   *pubsub.Publisher
	cfg         *config.Config
}

func NewModerationService(
	commentRepo *repository.CommentRepository,
	recordRepo *repository.ModerationRecordRepository,
	userRepo *repository.UserRepository,
	filter *contentfilter.Filter,
	limiter ratelimit.Limiter,
	notifyQueue *notify.Queue,
	publisher *pubsub.Publisher,
	cfg *config.Config,
) *ModerationService {
	return &ModerationService{
		commentRepo: commentRepo,
		recordRepo:  recordRepo,
		userRepo:    userRepo,
		filter:      filter,
		limiter:     limiter,
		notifyQueue: notifyQueue,
		publisher:   publisher,
		cfg:         cfg,
	}
}

// Create 创建评论，通过限流和内容校验后以 PENDING 状态入库
func (s *ModerationService) Create(ctx context.Context, userID int64, articleID string, req *dto.CreateCommentRequest) (*dto.CommentItem, error) {
	// 限流检查
	identity := strconv.FormatInt(userID, 10)
	allowed, err := s.limiter.Allow(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !allowed {
		wait, werr := s.limiter.TimeToWait(ctx, identity)
		if werr != nil {
			wait = 0
		}
		return nil, &RateLimitError{RetryAfter: wait}
	}

	// 内容校验
	if err := s.filter.Validate(req.Content); err != nil {
		return nil, err
	}

	// 如果是回复，验证父评论
	var parent *model.Comment
	if req.ParentID != nil {
		parent, err = s.commentRepo.GetByID(*req.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}

		// 验证父评论属于同一文章
		if parent.ArticleID != articleID {
			return nil, ErrParentNotInArticle
		}

		// 只支持一级回复
		if parent.ParentID != nil {
			req.ParentID = parent.ParentID
		}
	}

	// 获取用户信息
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		UserID:    userID,
		ArticleID: articleID,
		ParentID:  req.ParentID,
		Content:   req.Content,
		Status:    model.CommentStatusPending,
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}

	// 回复通知父评论作者，失败只记录日志，不影响评论创建
	if parent != nil && parent.UserID != userID {
		s.pushEvent(ctx, &notify.Event{
			Kind:        notify.KindReply,
			CommentID:   comment.ID,
			ArticleID:   articleID,
			RecipientID: parent.UserID,
			ParentID:    &parent.ID,
		})
	}

	comment.User = user
	return s.buildCommentItem(comment), nil
}

// Moderate 审核评论：更新状态和审核时间，同时追加审核记录，
// 两个写入作为一个事务提交
func (s *ModerationService) Moderate(ctx context.Context, moderatorID, commentID int64, req *dto.ModerateCommentRequest) (*dto.ModerationResult, error) {
	status, ok := actionStatus[req.Action]
	if !ok {
		return nil, ErrInvalidAction
	}

	comment, err := s.commentRepo.GetByIDWithUser(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	moderatedAt := time.Now()
	record := &model.ModerationRecord{
		CommentID:   commentID,
		Action:      req.Action,
		ModeratorID: moderatorID,
		Reason:      req.Reason,
	}

	if err := s.commentRepo.Moderate(commentID, status, moderatedAt, record); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	comment.Status = status
	comment.ModeratedAt = &moderatedAt

	// 审核结果通知评论作者
	s.pushEvent(ctx, &notify.Event{
		Kind:        notify.KindModerationUpdate,
		CommentID:   comment.ID,
		ArticleID:   comment.ArticleID,
		RecipientID: comment.UserID,
		Status:      status,
	})

	// 在线作者通过 WebSocket 实时收到审核结果
	if s.publisher != nil {
		msg := &pubsub.ModerationMessage{
			UserID:    comment.UserID,
			CommentID: comment.ID,
			ArticleID: comment.ArticleID,
			Status:    status,
		}
		if err := s.publisher.PublishModeration(ctx, msg); err != nil {
			log.Printf("Failed to publish moderation message for comment %d: %v", comment.ID, err)
		}
	}

	return &dto.ModerationResult{
		Comment: s.buildCommentItem(comment),
		Record:  buildRecordItem(record),
	}, nil
}

// ListPending 待审核队列，先进先出
func (s *ModerationService) ListPending(page, pageSize int) ([]*dto.CommentItem, int64, error) {
	comments, total, err := s.commentRepo.ListPending(page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.CommentItem, len(comments))
	for i, c := range comments {
		items[i] = s.buildCommentItem(c)
	}
	return items, total, nil
}

// ListByArticleID 文章的已通过评论树：一级评论最新在前，回复时间正序
func (s *ModerationService) ListByArticleID(articleID string, page, pageSize int) ([]*dto.CommentItem, int64, error) {
	comments, total, err := s.commentRepo.ListApprovedByArticleID(articleID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	if len(comments) == 0 {
		return []*dto.CommentItem{}, total, nil
	}

	// 收集一级评论ID
	parentIDs := make([]int64, len(comments))
	for i, c := range comments {
		parentIDs[i] = c.ID
	}

	// 批量获取已通过的回复
	replies, err := s.commentRepo.GetApprovedRepliesByParentIDs(parentIDs)
	if err != nil {
		return nil, 0, err
	}

	// 构建回复映射
	repliesMap := make(map[int64][]*model.Comment)
	for _, r := range replies {
		if r.ParentID != nil {
			repliesMap[*r.ParentID] = append(repliesMap[*r.ParentID], r)
		}
	}

	// 组装结果
	items := make([]*dto.CommentItem, len(comments))
	for i, c := range comments {
		items[i] = s.buildCommentItem(c)

		if childReplies, ok := repliesMap[c.ID]; ok {
			items[i].Replies = make([]*dto.CommentItem, len(childReplies))
			for j, r := range childReplies {
				items[i].Replies[j] = s.buildCommentItem(r)
			}
		}
	}

	return items, total, nil
}

// ListRecords 评论的审核历史
func (s *ModerationService) ListRecords(commentID int64) ([]*dto.ModerationRecordItem, error) {
	if _, err := s.commentRepo.GetByID(commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	records, err := s.recordRepo.ListByCommentID(commentID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ModerationRecordItem, len(records))
	for i, r := range records {
		items[i] = buildRecordItem(r)
	}
	return items, nil
}

// pushEvent 投递通知事件，失败只记录日志
func (s *ModerationService) pushEvent(ctx context.Context, evt *notify.Event) {
	if s.notifyQueue == nil {
		return
	}
	if err := s.notifyQueue.Push(ctx, evt); err != nil {
		log.Printf("Failed to push notify event for comment %d: %v", evt.CommentID, err)
	}
}

func (s *ModerationService) buildCommentItem(c *model.Comment) *dto.CommentItem {
	item := &dto.CommentItem{
		ID:        c.ID,
		ArticleID: c.ArticleID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		Status:    c.Status,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}

	if c.ModeratedAt != nil {
		item.ModeratedAt = c.ModeratedAt.Format(time.RFC3339)
	}

	if c.User != nil {
		item.User = &dto.CommentUser{
			ID:        c.User.ID,
			Username:  c.User.Username,
			AvatarURL: c.User.AvatarURL,
		}
	}

	return item
}

func buildRecordItem(r *model.ModerationRecord) *dto.ModerationRecordItem {
	return &dto.ModerationRecordItem{
		ID:          r.ID,
		CommentID:   r.CommentID,
		Action:      r.Action,
		ModeratorID: r.ModeratorID,
		Reason:      r.Reason,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}
