package handler

import (
	"fmt"
	"net/http"

	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/rbac"
	"github.com/Baaaki/yamdb/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
	pager       pager
}

func NewUserHandler(userService *service.UserService, pageSize int) *UserHandler {
	return &UserHandler{userService: userService, pager: pager{defaultSize: pageSize}}
}

// isMe reports whether the path addresses the caller rather than a username.
func isMe(c *gin.Context) bool {
	return c.Param("username") == rbac.SelfAlias
}

func (h *UserHandler) List(c *gin.Context) {
	page, err := h.pager.parse(c)
	if err != nil {
		respondError(c, err)
		return
	}

	users, count, err := h.userService.List(middleware.CurrentUser(c), c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}

	body, err := paginate(c, page, count, users, newUserResponse)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req service.UserInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.Create(middleware.CurrentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(user))
}

func (h *UserHandler) Get(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	var (
		user *models.User
		err  error
	)
	if isMe(c) {
		user, err = h.userService.Me(actor)
	} else {
		user, err = h.userService.Get(actor, c.Param("username"))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// Update patches a user. On /users/me fields the caller may not write are ignored.
func (h *UserHandler) Update(c *gin.Context) {
	var req service.UserPatch
	if err := bindJSON(c, &req, true); err != nil {
		respondError(c, err)
		return
	}

	actor := middleware.CurrentUser(c)

	var (
		user *models.User
		err  error
	)
	if isMe(c) {
		user, err = h.userService.UpdateMe(actor, req)
	} else {
		user, err = h.userService.Update(actor, c.Param("username"), req)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *UserHandler) Delete(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	if isMe(c) {
		if actor == nil {
			respondError(c, apperrors.Unauthenticated(""))
			return
		}
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{
			apperrors.DetailField: []string{fmt.Sprintf("Method \"%s\" not allowed.", c.Request.Method)},
		})
		return
	}

	if err := h.userService.Delete(actor, c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
