package http

import (
	"net/http"
	"strconv"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/logger"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IContentHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Schedule(c *gin.Context)
	Cancel(c *gin.Context)
	Publish(c *gin.Context)
	Metrics(c *gin.Context)
	DeletePosts(c *gin.Context)
	History(c *gin.Context)
	RunScheduler(c *gin.Context)
}

type ContentHandler struct {
	contents  usecase.IContentUsecase
	scheduler usecase.ISchedulerUsecase
	publisher usecase.IPublishUsecase
}

func NewContentHandler(contents usecase.IContentUsecase, scheduler usecase.ISchedulerUsecase, publisher usecase.IPublishUsecase) IContentHandler {
	return &ContentHandler{contents: contents, scheduler: scheduler, publisher: publisher}
}

func contentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_id", "message": "content id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func publishResponse(item *model.ContentItem, outcome *model.PublishOutcome) dto.PublishResponse {
	res := dto.PublishResponse{ContentID: item.ID, Status: string(item.Status), PostResults: item.PostResults, Errors: []string{}}
	if outcome != nil {
		res.Status = string(outcome.Status)
		res.PostResults = outcome.PostResultsDocument()
		res.Errors = outcome.Errors
	}
	return res
}

func (h *ContentHandler) Create(c *gin.Context) {
	var req dto.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	item, err := h.contents.Create(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *ContentHandler) Get(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}
	item, err := h.contents.Get(c.Request.Context(), c.GetString("user_id"), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ContentHandler) Schedule(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	item, err := h.contents.Schedule(c.Request.Context(), c.GetString("user_id"), id, req.ScheduledAt)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ContentHandler) Cancel(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}
	item, err := h.contents.Cancel(c.Request.Context(), c.GetString("user_id"), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Publish runs the orchestrator for one item now, bypassing its schedule.
func (h *ContentHandler) Publish(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}
	item, outcome, err := h.scheduler.RunOne(c.Request.Context(), c.GetString("user_id"), id)
	if err != nil {
		logger.GetLogger().WithField("content_id", id).WithField("error", err).Warn("Immediate publish failed")
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, publishResponse(item, outcome))
}

func (h *ContentHandler) Metrics(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}
	item, err := h.contents.Get(c.Request.Context(), c.GetString("user_id"), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out, err := h.publisher.Metrics(c.Request.Context(), item)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content_id": id, "metrics": out})
}

func (h *ContentHandler) DeletePosts(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}
	item, err := h.contents.Get(c.Request.Context(), c.GetString("user_id"), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out, err := h.publisher.DeletePosts(c.Request.Context(), item)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content_id": id, "deleted": out})
}

func (h *ContentHandler) History(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}
	out, err := h.contents.History(c.Request.Context(), c.GetString("user_id"), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content_id": id, "history": out})
}

// RunScheduler triggers one dispatcher pass (admin/dev utility).
func (h *ContentHandler) RunScheduler(c *gin.Context) {
	summary, err := h.scheduler.RunDue(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
