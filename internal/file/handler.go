package file

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

func fileID(c *gin.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

type CreateFileRequest struct {
	FileName  string `json:"fileName" binding:"required,min=1,max=255"`
	ProjectID uint64 `json:"projectId" binding:"required"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateFileRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	f, err := h.service.CreateFile(c.Request.Context(), userID.(uint64), form.ProjectID, form.FileName)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, f)
}

type RenameFileRequest struct {
	FileName string `json:"fileName" binding:"required,min=1,max=255"`
}

func (h *Handler) Rename(c *gin.Context) {
	id, err := fileID(c)
	if err != nil {
		c.Error(errors.BadRequest("Invalid file id", err))
		return
	}

	var form RenameFileRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	f, err := h.service.RenameFile(c.Request.Context(), userID.(uint64), id, form.FileName)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, f)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := fileID(c)
	if err != nil {
		c.Error(errors.BadRequest("Invalid file id", err))
		return
	}

	userID, _ := c.Get("user_id")

	if err := h.service.DeleteFile(c.Request.Context(), userID.(uint64), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type AssignFileRequest struct {
	TargetUserID uint64 `json:"targetUserId" binding:"required"`
}

func (h *Handler) Assign(c *gin.Context) {
	id, err := fileID(c)
	if err != nil {
		c.Error(errors.BadRequest("Invalid file id", err))
		return
	}

	var form AssignFileRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	f, err := h.service.AssignFile(c.Request.Context(), userID.(uint64), id, form.TargetUserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, f)
}

func (h *Handler) Unassign(c *gin.Context) {
	id, err := fileID(c)
	if err != nil {
		c.Error(errors.BadRequest("Invalid file id", err))
		return
	}

	userID, _ := c.Get("user_id")

	f, err := h.service.UnassignFile(c.Request.Context(), userID.(uint64), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, f)
}

func (h *Handler) StartEditing(c *gin.Context) {
	id, err := fileID(c)
	if err != nil {
		c.Error(errors.BadRequest("Invalid file id", err))
		return
	}

	userID, _ := c.Get("user_id")

	f, err := h.service.StartEditing(c.Request.Context(), userID.(uint64), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, f)
}

type SaveFileRequest struct {
	Content string `json:"content"`
}

func (h *Handler) Save(c *gin.Context) {
	id, err := fileID(c)
	if err != nil {
		c.Error(errors.BadRequest("Invalid file id", err))
		return
	}

	var form SaveFileRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	f, err := h.service.SaveFile(c.Request.Context(), userID.(uint64), id, form.Content)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, f)
}

func (h *Handler) ListVersions(c *gin.Context) {
	id, err := fileID(c)
	if err != nil {
		c.Error(errors.BadRequest("Invalid file id", err))
		return
	}

	userID, _ := c.Get("user_id")

	versions, err := h.service.ListVersions(c.Request.Context(), userID.(uint64), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": versions})
}
