package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mkblog/comment_server/config"
	"github.com/mkblog/comment_server/internal/pkg/notify"
	"github.com/mkblog/comment_server/internal/repository"
)

const excerptMaxRunes = 100

// Sender 通知发送接口，生产环境由 email.Service 实现
type Sender interface {
	SendReplyNotification(to, username, replierName, articleID, excerpt string) error
	SendModerationResult(to, username, articleID, excerpt, status string) error
}

// Processor 通知事件处理器
type Processor struct {
	commentRepo *repository.CommentRepository
	userRepo    *repository.UserRepository
	sender      Sender
	cfg         *config.Config
}

// NewProcessor 创建通知处理器
func NewProcessor(
	commentRepo *repository.CommentRepository,
	userRepo *repository.UserRepository,
	sender Sender,
	cfg *config.Config,
) *Processor {
	return &Processor{
		commentRepo: commentRepo,
		userRepo:    userRepo,
		sender:      sender,
		cfg:         cfg,
	}
}

// Process 处理单个通知事件
// 通知是尽力而为的：评论或收件人已不存在时跳过，不视为错误
func (p *Processor) Process(ctx context.Context, evt *notify.Event) error {
	switch evt.Kind {
	case notify.KindReply:
		return p.processReply(evt)
	case notify.KindModerationUpdate:
		return p.processModerationUpdate(evt)
	default:
		return fmt.Errorf("unknown event kind: %s", evt.Kind)
	}
}

// processReply 通知被回复的用户
func (p *Processor) processReply(evt *notify.Event) error {
	comment, err := p.commentRepo.GetByIDWithUser(evt.CommentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Skip reply event: comment %d not found", evt.CommentID)
			return nil
		}
		return fmt.Errorf("failed to get comment: %w", err)
	}

	recipient, err := p.userRepo.GetByID(evt.RecipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Skip reply event: recipient %d not found", evt.RecipientID)
			return nil
		}
		return fmt.Errorf("failed to get recipient: %w", err)
	}

	if recipient.Email == nil || *recipient.Email == "" {
		log.Printf("Skip reply event: recipient %d has no email", recipient.ID)
		return nil
	}

	replierName := ""
	if comment.User != nil {
		replierName = comment.User.Username
	}

	if err := p.sender.SendReplyNotification(
		*recipient.Email, recipient.Username, replierName,
		evt.ArticleID, excerpt(comment.Content),
	); err != nil {
		return fmt.Errorf("failed to send reply notification: %w", err)
	}

	return p.commentRepo.MarkNotified(comment.ID)
}

// processModerationUpdate 通知评论作者审核结果
func (p *Processor) processModerationUpdate(evt *notify.Event) error {
	comment, err := p.commentRepo.GetByIDWithUser(evt.CommentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Skip moderation event: comment %d not found", evt.CommentID)
			return nil
		}
		return fmt.Errorf("failed to get comment: %w", err)
	}

	author, err := p.userRepo.GetByID(evt.RecipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Skip moderation event: author %d not found", evt.RecipientID)
			return nil
		}
		return fmt.Errorf("failed to get author: %w", err)
	}

	if author.Email == nil || *author.Email == "" {
		log.Printf("Skip moderation event: author %d has no email", author.ID)
		return nil
	}

	status := evt.Status
	if status == "" {
		status = comment.Status
	}

	if err := p.sender.SendModerationResult(
		*author.Email, author.Username,
		evt.ArticleID, excerpt(comment.Content), status,
	); err != nil {
		return fmt.Errorf("failed to send moderation result: %w", err)
	}

	return nil
}

// excerpt 截取评论摘要
func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptMaxRunes {
		return content
	}
	return string(runes[:excerptMaxRunes]) + "..."
}

var _ Sender = noopSender{}

// noopSender 未配置 SMTP 时的占位实现，只记录日志
type noopSender struct{}

func NewNoopSender() Sender {
	return noopSender{}
}

func (noopSender) SendReplyNotification(to, username, replierName, articleID, excerpt string) error {
	log.Printf("Notify (dry-run): reply to %s on article %s", to, articleID)
	return nil
}

func (noopSender) SendModerationResult(to, username, articleID, excerpt, status string) error {
	log.Printf("Notify (dry-run): moderation %s to %s on article %s", status, to, articleID)
	return nil
}
