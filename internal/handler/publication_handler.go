package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/service"
	"github.com/gin-gonic/gin"
)

// ActivePublication 返回当前日期对应的 open 周期。
func (a *API) ActivePublication(c *gin.Context) {
	pub, err := a.publications.GetActivePublication(time.Now())
	if err != nil {
		if errors.Is(err, service.ErrNoActivePublication) {
			respondError(c, http.StatusNotFound, "no active publication")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load active publication")
		return
	}

	c.JSON(http.StatusOK, gin.H{"publication": publicationJSON(*pub)})
}

// ListPublications 返回全部周期，可按年份过滤。
func (a *API) ListPublications(c *gin.Context) {
	pubs, err := a.publications.ListAll(parseIntQuery(c, "year"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list publications")
		return
	}

	payload := make([]gin.H, 0, len(pubs))
	for _, pub := range pubs {
		payload = append(payload, publicationJSON(pub))
	}
	c.JSON(http.StatusOK, gin.H{"publications": payload})
}

// UpcomingPublications 返回仍在开放中的后续周期。
func (a *API) UpcomingPublications(c *gin.Context) {
	pubs, err := a.publications.UpcomingPublications(time.Now(), parseIntQuery(c, "limit"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list upcoming publications")
		return
	}

	payload := make([]gin.H, 0, len(pubs))
	for _, pub := range pubs {
		payload = append(payload, publicationJSON(pub))
	}
	c.JSON(http.StatusOK, gin.H{"publications": payload})
}

// PublishedPublications 返回已发布的周期。
func (a *API) PublishedPublications(c *gin.Context) {
	pubs, err := a.publications.PublishedPublications(parseIntQuery(c, "year"), parseIntQuery(c, "limit"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list published publications")
		return
	}

	payload := make([]gin.H, 0, len(pubs))
	for _, pub := range pubs {
		payload = append(payload, publicationJSON(pub))
	}
	c.JSON(http.StatusOK, gin.H{"publications": payload})
}

// GetPublication 返回单个周期及其统计与就绪状态。
func (a *API) GetPublication(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	pub, err := a.publications.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPublicationNotFound) {
			respondError(c, http.StatusNotFound, "publication not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load publication")
		return
	}

	stats, err := a.publications.ComputeStats(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	ready := stats.Approved >= 1 && stats.Draft == 0 && stats.Submitted == 0

	c.JSON(http.StatusOK, gin.H{
		"publication":      publicationJSON(*pub),
		"stats":            statsJSON(stats),
		"ready_to_publish": ready,
	})
}

// GenerateCycles 为指定年份批量生成 24 个周期。
func (a *API) GenerateCycles(c *gin.Context) {
	var input struct {
		Year int `json:"year"`
	}
	if !bindJSON(c, &input, "invalid cycle payload") {
		return
	}
	if input.Year < 2000 || input.Year > 2200 {
		respondError(c, http.StatusBadRequest, "year is out of range")
		return
	}

	created, err := a.publications.GenerateAnnualCycles(input.Year)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to generate cycles")
		return
	}

	payload := make([]gin.H, 0, len(created))
	for _, pub := range created {
		payload = append(payload, publicationJSON(pub))
	}
	c.JSON(http.StatusOK, gin.H{"created": payload})
}

// ClosePublication 将周期流转到 under_review。
func (a *API) ClosePublication(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.publications.ClosePublication(id); err != nil {
		if errors.Is(err, service.ErrPublicationNotFound) {
			respondError(c, http.StatusNotFound, "publication not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to close publication")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "publication closed"})
}

// PublishPublication 发送发布邮件，成功后才将周期标记为 published。
func (a *API) PublishPublication(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if a.sender == nil {
		respondError(c, http.StatusServiceUnavailable, "email delivery is not configured")
		return
	}

	recipients := a.recipients()

	err = a.publications.PublishAndSend(c.Request.Context(), id, a.sender, recipients)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"message":    "publication published and email sent",
			"recipients": len(recipients),
		})
	case errors.Is(err, service.ErrPublicationNotFound):
		respondError(c, http.StatusNotFound, "publication not found")
	case errors.Is(err, service.ErrPublicationNotReady):
		respondError(c, http.StatusConflict, "publication is not ready to publish")
	case errors.Is(err, service.ErrNoRecipients):
		respondError(c, http.StatusBadRequest, "no email recipients configured")
	default:
		// 发送失败时周期保持原状态
		respondError(c, http.StatusBadGateway, "failed to send publication email; publication not marked as published")
	}
}

func publicationJSON(pub db.Publication) gin.H {
	payload := gin.H{
		"id":           pub.ID,
		"year":         pub.Year,
		"month":        pub.Month,
		"period":       pub.Period,
		"status":       pub.Status,
		"display_name": pub.DisplayName(),
		"created_at":   pub.CreatedAt,
	}
	if pub.PublishedAt != nil {
		payload["published_at"] = pub.PublishedAt
	}
	return payload
}

func statsJSON(stats service.PublicationStats) gin.H {
	return gin.H{
		"total":     stats.Total,
		"draft":     stats.Draft,
		"submitted": stats.Submitted,
		"approved":  stats.Approved,
		"rejected":  stats.Rejected,
	}
}
