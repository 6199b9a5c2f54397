package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkblog/comment_server/internal/model"
	"github.com/mkblog/comment_server/internal/testutil"
)

func TestCommentRepository_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCommentRepository(db)
	user := testutil.TestUser(t, db)

	comment := &model.Comment{
		UserID:    user.ID,
		ArticleID: "my-first-post",
		Content:   "A fresh comment",
		Status:    model.CommentStatusPending,
	}

	err := repo.Create(comment)
	require.NoError(t, err)
	assert.NotZero(t, comment.ID)
	assert.False(t, comment.IsNotified)
}

func TestCommentRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCommentRepository(db)

	_, err := repo.GetByID(99999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCommentRepository_GetByIDWithUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCommentRepository(db)
	user := testutil.TestUser(t, db, testutil.WithUsername("author"))
	comment := testutil.TestComment(t, db, user.ID, "my-first-post", "With author")

	found, err := repo.GetByIDWithUser(comment.ID)
	require.NoError(t, err)
	require.NotNil(t, found.User)
	assert.Equal(t, "author", found.User.Username)
}

func TestCommentRepository_Moderate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCommentRepository(db)
	user := testutil.TestUser(t, db)
	moderator := testutil.TestModerator(t, db)
	comment := testutil.TestComment(t, db, user.ID, "my-first-post", "Pending review")

	moderatedAt := time.Now()
	record := &model.ModerationRecord{
		CommentID:   comment.ID,
		Action:      model.ModerationActionApprove,
		ModeratorID: moderator.ID,
	}

	err := repo.Moderate(comment.ID, model.CommentStatusApproved, moderatedAt, record)
	require.NoError(t, err)

	stored, err := repo.GetByID(comment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CommentStatusApproved, stored.Status)
	require.NotNil(t, stored.ModeratedAt)

	var records []model.ModerationRecord
	db.Where("comment_id = ?", comment.ID).Find(&records)
	require.Len(t, records, 1)
	assert.Equal(t, model.ModerationActionApprove, records[0].Action)
}

func TestCommentRepository_Moderate_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCommentRepository(db)
	moderator := testutil.TestModerator(t, db)

	record := &model.ModerationRecord{
		CommentID:   99999,
		Action:      model.ModerationActionApprove,
		ModeratorID: moderator.ID,
	}

	err := repo.Moderate(99999, model.CommentStatusApproved, time.Now(), record)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// No orphan record left behind
	var count int64
	db.Model(&model.ModerationRecord{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

// Forces the record insert to fail (duplicate primary key) and verifies
// the status update rolls back with it.
func TestCommentRepository_Moderate_RollbackOnRecordFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCommentRepository(db)
	user := testutil.TestUser(t, db)
	moderator := testutil.TestModerator(t, db)
	comment := testutil.TestComment(t, db, user.ID, "my-first-post", "Pending review")

	existing := testutil.TestModerationRecord(t, db, comment.ID, moderator.ID, model.ModerationActionReject)

	conflicting := &model.ModerationRecord{
		ID:          existing.ID, // duplicate primary key
		CommentID:   comment.ID,
		Action:      model.ModerationActionApprove,
		ModeratorID: moderator.ID,
	}

	err := repo.Moderate(comment.ID, model.CommentStatusApproved, time.Now(), conflicting)
	require.Error(t, err)

	// Status update must have rolled back
	stored, err := repo.GetByID(comment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CommentStatusPending, stored.Status)
}

func TestCommentRepository_ListPending_Order(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCommentRepository(db)
	user := testutil.TestUser(t, db)
	now := time.Now()

	second := testutil.TestComment(t, db, user.ID, "post-a", "Second",
		testutil.WithCreatedAt(now.Add(-time.Hour)))
	first := testutil.TestComment(t, db, user.ID, "post-b", "First",
		testutil.WithCreatedAt(now.Add(-2*time.Hour)))
	testutil.TestComment(t, db, user.ID, "post-a", "Approved",
		testutil.WithStatus(model.CommentStatusApproved))

	comments, total, err := repo.ListPending(1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, second.ID, comments[1].ID)
	require.NotNil(t, comments[0].User)
}

func TestCommentRepository_ListApprovedByArticleID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCommentRepository(db)
	user := testutil.TestUser(t, db)
	now := time.Now()

	older := testutil.TestComment(t, db, user.ID, "my-first-post", "Older",
		testutil.WithStatus(model.CommentStatusApproved),
		testutil.WithCreatedAt(now.Add(-2*time.Hour)))
	newer := testutil.TestComment(t, db, user.ID, "my-first-post", "Newer",
		testutil.WithStatus(model.CommentStatusApproved),
		testutil.WithCreatedAt(now.Add(-time.Hour)))

	// Replies and pending comments excluded from the top level
	testutil.TestReply(t, db, user.ID, "my-first-post", older.ID, "A reply",
		testutil.WithStatus(model.CommentStatusApproved))
	testutil.TestComment(t, db, user.ID, "my-first-post", "Pending")

	comments, total, err := repo.ListApprovedByArticleID("my-first-post", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, comments, 2)
	assert.Equal(t, newer.ID, comments[0].ID)
	assert.Equal(t, older.ID, comments[1].ID)
}

func TestCommentRepository_GetApprovedRepliesByParentIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCommentRepository(db)
	user := testutil.TestUser(t, db)
	now := time.Now()

	parent := testutil.TestComment(t, db, user.ID, "my-first-post", "Parent",
		testutil.WithStatus(model.CommentStatusApproved))

	second := testutil.TestReply(t, db, user.ID, "my-first-post", parent.ID, "Later reply",
		testutil.WithStatus(model.CommentStatusApproved),
		testutil.WithCreatedAt(now.Add(-time.Hour)))
	first := testutil.TestReply(t, db, user.ID, "my-first-post", parent.ID, "Earlier reply",
		testutil.WithStatus(model.CommentStatusApproved),
		testutil.WithCreatedAt(now.Add(-2*time.Hour)))
	testutil.TestReply(t, db, user.ID, "my-first-post", parent.ID, "Pending reply")

	replies, err := repo.GetApprovedRepliesByParentIDs([]int64{parent.ID})
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, first.ID, replies[0].ID)
	assert.Equal(t, second.ID, replies[1].ID)
}

func TestCommentRepository_GetApprovedRepliesByParentIDs_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCommentRepository(db)

	replies, err := repo.GetApprovedRepliesByParentIDs(nil)
	require.NoError(t, err)
	assert.Nil(t, replies)
}

func TestCommentRepository_MarkNotified(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCommentRepository(db)
	user := testutil.TestUser(t, db)
	comment := testutil.TestComment(t, db, user.ID, "my-first-post", "Notify me")

	require.NoError(t, repo.MarkNotified(comment.ID))

	stored, err := repo.GetByID(comment.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsNotified)
}

func TestCommentRepository_CountByArticleID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCommentRepository(db)
	user := testutil.TestUser(t, db)

	parent := testutil.TestComment(t, db, user.ID, "my-first-post", "Top",
		testutil.WithStatus(model.CommentStatusApproved))
	testutil.TestReply(t, db, user.ID, "my-first-post", parent.ID, "Reply",
		testutil.WithStatus(model.CommentStatusApproved))
	testutil.TestComment(t, db, user.ID, "my-first-post", "Pending")

	count, err := repo.CountByArticleID("my-first-post")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
