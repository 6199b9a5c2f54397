package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkblog/comment_server/internal/api/middleware"
	"github.com/mkblog/comment_server/internal/model/dto"
	"github.com/mkblog/comment_server/internal/pkg/contentfilter"
	"github.com/mkblog/comment_server/internal/pkg/response"
	"github.com/mkblog/comment_server/internal/service"
)

type CommentHandler struct {
	moderationService *service.ModerationService
}

func NewCommentHandler(moderationService *service.ModerationService) *CommentHandler {
	return &CommentHandler{
		moderationService: moderationService,
	}
}

// List 获取文章的已通过评论树
// GET /api/v1/articles/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	articleID := c.Param("id")
	if articleID == "" {
		response.ParamError(c, "无效的文章ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.moderationService.ListByArticleID(articleID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Create 发表评论，入库后等待审核
// POST /api/v1/articles/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	articleID := c.Param("id")
	if articleID == "" {
		response.ParamError(c, "无效的文章ID")
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	comment, err := h.moderationService.Create(c.Request.Context(), userID, articleID, &req)
	if err != nil {
		var rlErr *service.RateLimitError
		var vErr *contentfilter.ValidationError
		switch {
		case errors.As(err, &rlErr):
			response.RateLimitError(c, rlErr.Error(), int64(rlErr.RetryAfter.Seconds()+0.999))
		case errors.As(err, &vErr):
			response.ContentRejectedError(c, vErr.Message, vErr.Rule)
		case errors.Is(err, service.ErrParentNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrParentNotInArticle):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "评论已提交，等待审核", comment)
}
