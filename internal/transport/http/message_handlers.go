package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tramcham/tramcham-server/internal/service/messages"
	"github.com/tramcham/tramcham-server/internal/store"
)

// passwordHeader lets clients keep the password out of URLs and access logs.
const passwordHeader = "X-Message-Password"

// MessageHandlers provides HTTP handlers for gift messages.
type MessageHandlers struct {
	service *messages.Service
	log     *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(service *messages.Service, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		service: service,
		log:     logger,
	}
}

// CreateMessageRequest represents the create message request body.
type CreateMessageRequest struct {
	ProductID     string `json:"productId"`
	SenderName    string `json:"senderName"`
	RecipientName string `json:"recipientName"`
	MessageType   string `json:"messageType"`
	Content       string `json:"content"`
	Password      string `json:"password"`
	AudioURL      string `json:"audioUrl"`
	VideoURL      string `json:"videoUrl"`
	PodcastURL    string `json:"podcastUrl"`
}

// CreateMessageResponse is returned once to the creator.
type CreateMessageResponse struct {
	ID        string  `json:"id"`
	ShareLink string  `json:"shareLink"`
	Password  *string `json:"password"`
}

// MessageView represents a message as shown to a viewer.
type MessageView struct {
	ID            string `json:"id"`
	ProductID     string `json:"productId,omitempty"`
	SenderName    string `json:"senderName"`
	RecipientName string `json:"recipientName"`
	MessageType   string `json:"messageType"`
	Content       string `json:"content"`
	AudioURL      string `json:"audioUrl"`
	VideoURL      string `json:"videoUrl"`
	PodcastURL    string `json:"podcastUrl"`
	CreatedAt     string `json:"createdAt"`
	ViewCount     int64  `json:"viewCount"`
}

// MessageResponse wraps a viewed message.
type MessageResponse struct {
	Message MessageView `json:"message"`
}

// CreateMessage handles gift message creation.
// POST /api/messages
func (h *MessageHandlers) CreateMessage(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: messages.ErrCodeValidation})
		return
	}

	res, err := h.service.Create(c.Request.Context(), messages.CreateInput{
		ProductID:     req.ProductID,
		SenderName:    req.SenderName,
		RecipientName: req.RecipientName,
		Type:          store.MessageType(req.MessageType),
		Content:       req.Content,
		Password:      req.Password,
		AudioURL:      req.AudioURL,
		VideoURL:      req.VideoURL,
		PodcastURL:    req.PodcastURL,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateMessageResponse{
		ID:        res.ID,
		ShareLink: res.ShareLink,
		Password:  res.Password,
	})
}

// GetMessage handles reading a message by id.
// GET /api/messages/:id?password=
func (h *MessageHandlers) GetMessage(c *gin.Context) {
	view, err := h.service.GetByID(c.Request.Context(), c.Param("id"), requestPassword(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: toMessageView(view)})
}

// GetMessageByPassword handles reading a message by its password alone.
// GET /api/messages/by-password?password=
func (h *MessageHandlers) GetMessageByPassword(c *gin.Context) {
	view, err := h.service.GetByPassword(c.Request.Context(), requestPassword(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: toMessageView(view)})
}

func requestPassword(c *gin.Context) string {
	if p := c.GetHeader(passwordHeader); p != "" {
		return p
	}
	return c.Query("password")
}

func toMessageView(v *messages.View) MessageView {
	return MessageView{
		ID:            v.ID,
		ProductID:     v.ProductID,
		SenderName:    v.SenderName,
		RecipientName: v.RecipientName,
		MessageType:   string(v.Type),
		Content:       v.Content,
		AudioURL:      v.AudioURL,
		VideoURL:      v.VideoURL,
		PodcastURL:    v.PodcastURL,
		CreatedAt:     v.CreatedAt.Format(time.RFC3339),
		ViewCount:     v.ViewCount,
	}
}

// writeError maps service errors to stable status codes and messages.
func (h *MessageHandlers) writeError(c *gin.Context, err error) {
	code := messages.Code(err)

	var vErr *messages.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: vErr.Error(), Code: code, Field: vErr.Field})
	case errors.Is(err, messages.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found", Code: code})
	case errors.Is(err, messages.ErrPasswordRequired):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "password required to view this message", Code: code})
	case errors.Is(err, messages.ErrInvalidPassword):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "incorrect password", Code: code})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("message request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: code})
	}
}
