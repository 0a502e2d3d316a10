package http

import (
	"io"
	"net/http"
	"strconv"

	"social-publisher/domain/model"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody bounds a single delivery.
const maxWebhookBody = 1 << 20

type IWebhookHandler interface {
	Verify(c *gin.Context)
	Receive(c *gin.Context)
	Inbox(c *gin.Context)
	MarkRead(c *gin.Context)
}

type WebhookHandler struct {
	webhooks usecase.IWebhookUsecase
}

func NewWebhookHandler(webhooks usecase.IWebhookUsecase) IWebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Verify answers the platform's subscription handshake.
func (h *WebhookHandler) Verify(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		return
	}
	body, contentType, err := h.webhooks.Handshake(platform, c.Request.URL.Query())
	if err != nil {
		status, code := errorStatus(err)
		c.String(status, code)
		return
	}
	c.Data(http.StatusOK, contentType, body)
}

// Receive never reports parse problems back to the platform; only bad signatures are refused.
func (h *WebhookHandler) Receive(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		return
	}
	header, err := h.webhooks.SignatureHeader(platform)
	if err != nil {
		abortWithError(c, err)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	n, err := h.webhooks.Ingest(c.Request.Context(), platform, raw, c.GetHeader(header))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": n})
}

func (h *WebhookHandler) Inbox(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	unread := c.Query("unread") == "true" || c.Query("unread") == "1"
	events, err := h.webhooks.Inbox(c.Request.Context(), c.GetString("user_id"), unread, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if events == nil {
		events = []*model.WebhookEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *WebhookHandler) MarkRead(c *gin.Context) {
	if err := h.webhooks.MarkRead(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "read": true})
}
