package notifier

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkblog/comment_server/config"
	"github.com/mkblog/comment_server/internal/model"
	"github.com/mkblog/comment_server/internal/pkg/notify"
	"github.com/mkblog/comment_server/internal/repository"
	"github.com/mkblog/comment_server/internal/testutil"
)

type sentMail struct {
	Kind      string
	To        string
	Username  string
	Replier   string
	ArticleID string
	Excerpt   string
	Status    string
}

// stubSender 记录发送调用
type stubSender struct {
	mails []sentMail
}

func (s *stubSender) SendReplyNotification(to, username, replierName, articleID, excerpt string) error {
	s.mails = append(s.mails, sentMail{
		Kind: "reply", To: to, Username: username, Replier: replierName,
		ArticleID: articleID, Excerpt: excerpt,
	})
	return nil
}

func (s *stubSender) SendModerationResult(to, username, articleID, excerpt, status string) error {
	s.mails = append(s.mails, sentMail{
		Kind: "moderation", To: to, Username: username,
		ArticleID: articleID, Excerpt: excerpt, Status: status,
	})
	return nil
}

func setupProcessor(t *testing.T) (*Processor, *stubSender, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	sender := &stubSender{}
	processor := NewProcessor(
		repository.NewCommentRepository(db),
		repository.NewUserRepository(db),
		sender,
		&config.Config{},
	)

	return processor, sender, db
}

func TestProcessor_ReplyEvent(t *testing.T) {
	processor, sender, db := setupProcessor(t)
	defer testutil.CleanupTestDB(t, db)

	author := testutil.TestUser(t, db, testutil.WithUsername("author"))
	replier := testutil.TestUser(t, db, testutil.WithUsername("replier"))
	parent := testutil.TestComment(t, db, author.ID, "my-first-post", "Original comment",
		testutil.WithStatus(model.CommentStatusApproved))
	reply := testutil.TestReply(t, db, replier.ID, "my-first-post", parent.ID, "A reply for you")

	err := processor.Process(context.Background(), &notify.Event{
		Kind:        notify.KindReply,
		CommentID:   reply.ID,
		ArticleID:   "my-first-post",
		RecipientID: author.ID,
		ParentID:    &parent.ID,
	})
	require.NoError(t, err)

	require.Len(t, sender.mails, 1)
	mail := sender.mails[0]
	assert.Equal(t, "reply", mail.Kind)
	assert.Equal(t, *author.Email, mail.To)
	assert.Equal(t, "author", mail.Username)
	assert.Equal(t, "replier", mail.Replier)
	assert.Equal(t, "my-first-post", mail.ArticleID)
	assert.Equal(t, "A reply for you", mail.Excerpt)

	// 发送后标记已通知
	var stored model.Comment
	require.NoError(t, db.First(&stored, reply.ID).Error)
	assert.True(t, stored.IsNotified)
}

func TestProcessor_ModerationUpdateEvent(t *testing.T) {
	processor, sender, db := setupProcessor(t)
	defer testutil.CleanupTestDB(t, db)

	author := testutil.TestUser(t, db, testutil.WithUsername("hopeful"))
	comment := testutil.TestComment(t, db, author.ID, "my-first-post", "Judge me",
		testutil.WithStatus(model.CommentStatusApproved))

	err := processor.Process(context.Background(), &notify.Event{
		Kind:        notify.KindModerationUpdate,
		CommentID:   comment.ID,
		ArticleID:   "my-first-post",
		RecipientID: author.ID,
		Status:      model.CommentStatusApproved,
	})
	require.NoError(t, err)

	require.Len(t, sender.mails, 1)
	mail := sender.mails[0]
	assert.Equal(t, "moderation", mail.Kind)
	assert.Equal(t, *author.Email, mail.To)
	assert.Equal(t, model.CommentStatusApproved, mail.Status)
}

func TestProcessor_ModerationUpdate_StatusFallback(t *testing.T) {
	processor, sender, db := setupProcessor(t)
	defer testutil.CleanupTestDB(t, db)

	author := testutil.TestUser(t, db)
	comment := testutil.TestComment(t, db, author.ID, "my-first-post", "No status in event",
		testutil.WithStatus(model.CommentStatusRejected))

	err := processor.Process(context.Background(), &notify.Event{
		Kind:        notify.KindModerationUpdate,
		CommentID:   comment.ID,
		ArticleID:   "my-first-post",
		RecipientID: author.ID,
	})
	require.NoError(t, err)

	require.Len(t, sender.mails, 1)
	assert.Equal(t, model.CommentStatusRejected, sender.mails[0].Status)
}

func TestProcessor_SkipsMissingComment(t *testing.T) {
	processor, sender, db := setupProcessor(t)
	defer testutil.CleanupTestDB(t, db)

	author := testutil.TestUser(t, db)

	err := processor.Process(context.Background(), &notify.Event{
		Kind:        notify.KindReply,
		CommentID:   99999,
		ArticleID:   "my-first-post",
		RecipientID: author.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, sender.mails)
}

func TestProcessor_SkipsMissingRecipient(t *testing.T) {
	processor, sender, db := setupProcessor(t)
	defer testutil.CleanupTestDB(t, db)

	replier := testutil.TestUser(t, db)
	reply := testutil.TestComment(t, db, replier.ID, "my-first-post", "Orphan reply")

	err := processor.Process(context.Background(), &notify.Event{
		Kind:        notify.KindReply,
		CommentID:   reply.ID,
		ArticleID:   "my-first-post",
		RecipientID: 99999,
	})
	require.NoError(t, err)
	assert.Empty(t, sender.mails)
}

func TestProcessor_SkipsRecipientWithoutEmail(t *testing.T) {
	processor, sender, db := setupProcessor(t)
	defer testutil.CleanupTestDB(t, db)

	author := testutil.TestUser(t, db)
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", author.ID).
		Update("email", nil).Error)

	replier := testutil.TestUser(t, db)
	reply := testutil.TestComment(t, db, replier.ID, "my-first-post", "Reply without target email")

	err := processor.Process(context.Background(), &notify.Event{
		Kind:        notify.KindReply,
		CommentID:   reply.ID,
		ArticleID:   "my-first-post",
		RecipientID: author.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, sender.mails)
}

func TestProcessor_UnknownKind(t *testing.T) {
	processor, _, db := setupProcessor(t)
	defer testutil.CleanupTestDB(t, db)

	err := processor.Process(context.Background(), &notify.Event{Kind: "telegram"})
	assert.Error(t, err)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short"))

	long := strings.Repeat("长", 150)
	got := excerpt(long)
	assert.Equal(t, strings.Repeat("长", 100)+"...", got)
}
