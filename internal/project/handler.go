package project

import (
	"collaborative-code-editor/internal/errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func projectID(c *gin.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

type CreateProjectRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateProjectRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	p, err := h.service.CreateProject(c.Request.Context(), userID.(uint64), form.Name)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

func (h *Handler) List(c *gin.Context) {
	userID, _ := c.Get("user_id")

	projects, err := h.service.ListProjects(c.Request.Context(), userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": projects})
}

func (h *Handler) Enter(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		c.Error(errors.BadRequest("Invalid project id", err))
		return
	}

	userID, _ := c.Get("user_id")

	detail, err := h.service.EnterProject(c.Request.Context(), id, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

type AddMemberRequest struct {
	TargetUserID uint64 `json:"targetUserId" binding:"required"`
}

func (h *Handler) AddMember(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		c.Error(errors.BadRequest("Invalid project id", err))
		return
	}

	var form AddMemberRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	if err := h.service.AddMember(c.Request.Context(), id, userID.(uint64), form.TargetUserID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "member added"})
}

func (h *Handler) Leave(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		c.Error(errors.BadRequest("Invalid project id", err))
		return
	}

	userID, _ := c.Get("user_id")

	if err := h.service.LeaveProject(c.Request.Context(), id, userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left project"})
}
