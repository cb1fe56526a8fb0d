package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/metrics"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
	metrics       *metrics.Metrics
	pager         pager
}

func NewReviewHandler(reviewService *service.ReviewService, m *metrics.Metrics, pageSize int) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, metrics: m, pager: pager{defaultSize: pageSize}}
}

// reviewPath extracts title_id and, when want is set, review_id.
func reviewPath(c *gin.Context, want bool) (titleID, reviewID uint, err error) {
	if titleID, err = idParam(c, "title_id"); err != nil {
		return 0, 0, err
	}
	if want {
		if reviewID, err = idParam(c, "review_id"); err != nil {
			return 0, 0, err
		}
	}
	return titleID, reviewID, nil
}

func (h *ReviewHandler) List(c *gin.Context) {
	titleID, _, err := reviewPath(c, false)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.pager.parse(c)
	if err != nil {
		respondError(c, err)
		return
	}

	reviews, count, err := h.reviewService.List(titleID, page)
	if err != nil {
		respondError(c, err)
		return
	}

	body, err := paginate(c, page, count, reviews, newReviewResponse)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, reviewID, err := reviewPath(c, true)
	if err != nil {
		respondError(c, err)
		return
	}

	review, err := h.reviewService.Get(titleID, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReviewResponse(review))
}

func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, _, err := reviewPath(c, false)
	if err != nil {
		respondError(c, err)
		return
	}

	actor := middleware.CurrentUser(c)
	var req service.ReviewInput
	if err := bindJSON(c, &req, false); err != nil {
		// A repeat reviewer hears about the duplicate before a malformed body.
		if denied := h.reviewService.CheckCanReview(actor, titleID); denied != nil {
			err = denied
		}
		respondError(c, err)
		return
	}

	review, err := h.reviewService.Create(actor, titleID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.metrics.Inc(metrics.EventReviewCreated)
	c.JSON(http.StatusCreated, newReviewResponse(review))
}

func (h *ReviewHandler) Update(c *gin.Context) {
	titleID, reviewID, err := reviewPath(c, true)
	if err != nil {
		respondError(c, err)
		return
	}

	var req service.ReviewPatch
	if err := bindJSON(c, &req, true); err != nil {
		respondError(c, err)
		return
	}

	review, err := h.reviewService.Update(middleware.CurrentUser(c), titleID, reviewID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReviewResponse(review))
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, reviewID, err := reviewPath(c, true)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.reviewService.Delete(middleware.CurrentUser(c), titleID, reviewID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
