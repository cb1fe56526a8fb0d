package handler

import (
	"net/http"
	"strconv"

	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"

	"github.com/gin-gonic/gin"
)

type TitleHandler struct {
	titleService *service.TitleService
	pager        pager
}

func NewTitleHandler(titleService *service.TitleService, pageSize int) *TitleHandler {
	return &TitleHandler{titleService: titleService, pager: pager{defaultSize: pageSize}}
}

func titleFilter(c *gin.Context) (repository.TitleFilter, error) {
	filter := repository.TitleFilter{
		Category: c.Query("category"),
		Genre:    c.Query("genre"),
		Name:     c.Query("name"),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filter, apperrors.FieldInvalid("year", "Enter a number.")
		}
		filter.Year = &year
	}
	return filter, nil
}

func (h *TitleHandler) List(c *gin.Context) {
	filter, err := titleFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.pager.parse(c)
	if err != nil {
		respondError(c, err)
		return
	}

	titles, count, err := h.titleService.List(filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	body, err := paginate(c, page, count, titles, newTitleResponse)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *TitleHandler) Get(c *gin.Context) {
	id, err := idParam(c, "title_id")
	if err != nil {
		respondError(c, err)
		return
	}

	title, err := h.titleService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTitleResponse(title))
}

func (h *TitleHandler) Create(c *gin.Context) {
	var req service.TitleInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	title, err := h.titleService.Create(middleware.CurrentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTitleResponse(title))
}

func (h *TitleHandler) Update(c *gin.Context) {
	id, err := idParam(c, "title_id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req service.TitlePatch
	if err := bindJSON(c, &req, true); err != nil {
		respondError(c, err)
		return
	}

	title, err := h.titleService.Update(middleware.CurrentUser(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTitleResponse(title))
}

func (h *TitleHandler) Delete(c *gin.Context) {
	id, err := idParam(c, "title_id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.titleService.Delete(middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
