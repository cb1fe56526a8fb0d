package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/metrics"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService *service.CommentService
	metrics        *metrics.Metrics
	pager          pager
}

func NewCommentHandler(commentService *service.CommentService, m *metrics.Metrics, pageSize int) *CommentHandler {
	return &CommentHandler{commentService: commentService, metrics: m, pager: pager{defaultSize: pageSize}}
}

type commentRoute struct {
	titleID, reviewID, commentID uint
}

func commentPath(c *gin.Context, withComment bool) (commentRoute, error) {
	var r commentRoute
	var err error
	if r.titleID, r.reviewID, err = reviewPath(c, true); err != nil {
		return r, err
	}
	if withComment {
		if r.commentID, err = idParam(c, "comment_id"); err != nil {
			return r, err
		}
	}
	return r, nil
}

func (h *CommentHandler) List(c *gin.Context) {
	r, err := commentPath(c, false)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.pager.parse(c)
	if err != nil {
		respondError(c, err)
		return
	}

	comments, count, err := h.commentService.List(r.titleID, r.reviewID, page)
	if err != nil {
		respondError(c, err)
		return
	}

	body, err := paginate(c, page, count, comments, newCommentResponse)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *CommentHandler) Get(c *gin.Context) {
	r, err := commentPath(c, true)
	if err != nil {
		respondError(c, err)
		return
	}

	comment, err := h.commentService.Get(r.titleID, r.reviewID, r.commentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(comment))
}

func (h *CommentHandler) Create(c *gin.Context) {
	r, err := commentPath(c, false)
	if err != nil {
		respondError(c, err)
		return
	}

	var req service.CommentInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	comment, err := h.commentService.Create(middleware.CurrentUser(c), r.titleID, r.reviewID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.metrics.Inc(metrics.EventCommentCreated)
	c.JSON(http.StatusCreated, newCommentResponse(comment))
}

func (h *CommentHandler) Update(c *gin.Context) {
	r, err := commentPath(c, true)
	if err != nil {
		respondError(c, err)
		return
	}

	var req service.CommentInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	comment, err := h.commentService.Update(middleware.CurrentUser(c), r.titleID, r.reviewID, r.commentID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(comment))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	r, err := commentPath(c, true)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.commentService.Delete(middleware.CurrentUser(c), r.titleID, r.reviewID, r.commentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
