package http

import (
	"net/http"
	"net/url"

	"social-publisher/domain/dto"
	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/logger"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IConnectionHandler interface {
	Connect(c *gin.Context)
	Callback(c *gin.Context)
	Disconnect(c *gin.Context)
	Status(c *gin.Context)
}

type ConnectionHandler struct {
	connections usecase.IConnectionUsecase
	frontendURL string
}

func NewConnectionHandler(connections usecase.IConnectionUsecase, frontendURL string) IConnectionHandler {
	return &ConnectionHandler{connections: connections, frontendURL: frontendURL}
}

func platformParam(c *gin.Context) (model.Platform, bool) {
	p, ok := model.ParsePlatform(c.Param("platform"))
	if !ok {
		abortWithError(c, errs.ErrUnsupportedPlatform)
	}
	return p, ok
}

// Connect returns the URL the browser should be sent to for consent.
func (h *ConnectionHandler) Connect(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		return
	}
	authURL, err := h.connections.BeginAuthorization(c.Request.Context(), c.GetString("user_id"), platform)
	if err != nil {
		logger.GetLogger().WithField("platform", platform).WithField("error", err).Warn("Cannot start authorization")
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AuthorizationURLResponse{AuthorizationURL: authURL})
}

// Callback is hit by the platform redirect. It always answers with a redirect to the frontend.
func (h *ConnectionHandler) Callback(c *gin.Context) {
	platform, ok := model.ParsePlatform(c.Param("platform"))
	if !ok {
		h.redirect(c, url.Values{"error": {"unsupported_platform"}, "message": {"unknown platform"}})
		return
	}
	if denied := c.Query("error"); denied != "" {
		msg := c.Query("error_description")
		if msg == "" {
			msg = denied
		}
		h.redirect(c, url.Values{"error": {denied}, "message": {msg}})
		return
	}
	code := c.Query("code")
	if code == "" {
		h.redirect(c, url.Values{"error": {"missing_code"}, "message": {"authorization code missing"}})
		return
	}

	_, err := h.connections.CompleteAuthorization(c.Request.Context(), platform, code, c.Query("state"))
	if err != nil {
		_, errCode := errorStatus(err)
		logger.GetLogger().WithField("platform", platform).WithField("error", err).Warn("Authorization callback failed")
		h.redirect(c, url.Values{"error": {errCode}, "message": {err.Error()}})
		return
	}
	h.redirect(c, url.Values{"success": {string(platform)}})
}

func (h *ConnectionHandler) redirect(c *gin.Context, params url.Values) {
	target, err := url.Parse(h.frontendURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid frontend url"})
		return
	}
	q := target.Query()
	for k, v := range params {
		q[k] = v
	}
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}

func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		return
	}
	if err := h.connections.Disconnect(c.Request.Context(), c.GetString("user_id"), platform); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"platform": platform, "status": model.ProfileDisconnected})
}

func (h *ConnectionHandler) Status(c *gin.Context) {
	out, err := h.connections.Status(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": out})
}
