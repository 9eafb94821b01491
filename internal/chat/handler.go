package chat

import (
	"collaborative-code-editor/internal/errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetMessages handles GET /projects/:id/messages?limit=N
func (h *Handler) GetMessages(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid project id", err))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	userID, _ := c.Get("user_id")

	messages, err := h.service.GetMessages(c.Request.Context(), projectID, userID.(uint64), limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": messages})
}

type PostMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`

	// Time is the sender's provisional timestamp, kept as the stored
	// message's time so the sender's optimistic entry and the broadcast
	// echo dedup on (content, time).
	Time time.Time `json:"time"`
}

// PostMessage handles POST /projects/:id/messages
func (h *Handler) PostMessage(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid project id", err))
		return
	}

	var form PostMessageRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")
	userName, _ := c.Get("user_name")

	m, err := h.service.PostMessage(c.Request.Context(), projectID, userID.(uint64), userName.(string), form.Content, form.Time)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": m})
}
