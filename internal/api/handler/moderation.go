package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkblog/comment_server/internal/api/middleware"
	"github.com/mkblog/comment_server/internal/model/dto"
	"github.com/mkblog/comment_server/internal/pkg/response"
	"github.com/mkblog/comment_server/internal/service"
)

type ModerationHandler struct {
	moderationService *service.ModerationService
}

func NewModerationHandler(moderationService *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{
		moderationService: moderationService,
	}
}

// ListPending 待审核队列，先进先出
// GET /api/v1/moderation/comments
func (h *ModerationHandler) ListPending(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.moderationService.ListPending(page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Moderate 审核评论
// POST /api/v1/moderation/comments/:id
func (h *ModerationHandler) Moderate(c *gin.Context) {
	moderatorID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	commentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的评论ID")
		return
	}

	var req dto.ModerateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.moderationService.Moderate(c.Request.Context(), moderatorID, commentID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAction):
			response.InvalidActionError(c, err.Error())
		case errors.Is(err, service.ErrCommentNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "审核完成", result)
}

// ListRecords 评论的审核历史
// GET /api/v1/moderation/comments/:id/records
func (h *ModerationHandler) ListRecords(c *gin.Context) {
	commentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的评论ID")
		return
	}

	records, err := h.moderationService.ListRecords(commentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, records)
}
