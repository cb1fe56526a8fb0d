package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"

	"github.com/gin-gonic/gin"
)

// TaxonomyHandler serves /categories or /genres.
type TaxonomyHandler[T repository.Taxon] struct {
	service *service.TaxonomyService[T]
	pager   pager
}

func NewTaxonomyHandler[T repository.Taxon](svc *service.TaxonomyService[T], pageSize int) *TaxonomyHandler[T] {
	return &TaxonomyHandler[T]{service: svc, pager: pager{defaultSize: pageSize}}
}

func toTaxonomyResponse[T repository.Taxon](item *T) TaxonomyResponse {
	return newTaxonomyResponse((*item).Entry())
}

func (h *TaxonomyHandler[T]) List(c *gin.Context) {
	page, err := h.pager.parse(c)
	if err != nil {
		respondError(c, err)
		return
	}

	items, count, err := h.service.List(c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}

	body, err := paginate(c, page, count, items, toTaxonomyResponse[T])
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *TaxonomyHandler[T]) Create(c *gin.Context) {
	var req service.TaxonomyInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	item, err := h.service.Create(middleware.CurrentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTaxonomyResponse(item))
}

func (h *TaxonomyHandler[T]) Rename(c *gin.Context) {
	var req service.RenameInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	item, err := h.service.Rename(middleware.CurrentUser(c), c.Param("slug"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaxonomyResponse(item))
}

func (h *TaxonomyHandler[T]) Delete(c *gin.Context) {
	if err := h.service.Delete(middleware.CurrentUser(c), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
