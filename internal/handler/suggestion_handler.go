package handler

import (
	"errors"
	"net/http"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/service"
	"github.com/gin-gonic/gin"
)

// GenerateSuggestion 为投稿内容生成 AI 改进建议。建议失败时返回空
// 建议而不是错误，投稿流程不依赖 AI 可用。
func (a *API) GenerateSuggestion(c *gin.Context) {
	submission, ok := a.loadSubmission(c)
	if !ok {
		return
	}
	if !a.canView(c, submission) {
		respondError(c, http.StatusForbidden, "not allowed to access this submission")
		return
	}

	fields, err := a.submissions.Fields(submission.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load submission fields")
		return
	}

	content := service.NewSubmissionContent(submission.ProjectName, fields)
	suggested, err := a.suggester.SuggestContent(c.Request.Context(), content)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"suggestion": nil,
			"message":    "no suggestion available",
		})
		return
	}

	record, err := a.suggestions.Save(submission.ID, fields, suggested, false)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to record suggestion")
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestion": gin.H{
		"id":      record.ID,
		"content": suggested,
	}})
}

// ListSuggestions 列出一条投稿的 AI 建议历史。
func (a *API) ListSuggestions(c *gin.Context) {
	submission, ok := a.loadSubmission(c)
	if !ok {
		return
	}
	if !a.canView(c, submission) {
		respondError(c, http.StatusForbidden, "not allowed to access this submission")
		return
	}

	records, err := a.suggestions.ListBySubmission(submission.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list suggestions")
		return
	}

	payload := make([]gin.H, 0, len(records))
	for _, record := range records {
		payload = append(payload, suggestionJSON(record))
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": payload})
}

// AcceptSuggestion 将一条历史建议合并回投稿字段。
func (a *API) AcceptSuggestion(c *gin.Context) {
	submission, ok := a.loadSubmission(c)
	if !ok {
		return
	}
	if !a.canEdit(c, submission) {
		respondError(c, http.StatusForbidden, "not allowed to edit this submission")
		return
	}

	suggestionID, err := parseUintParam(c, "suggestionId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	record, err := a.suggestions.Get(suggestionID)
	if err != nil {
		if errors.Is(err, service.ErrSuggestionNotFound) {
			respondError(c, http.StatusNotFound, "suggestion not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load suggestion")
		return
	}
	if record.SubmissionID != submission.ID {
		respondError(c, http.StatusNotFound, "suggestion not found")
		return
	}

	suggested, err := service.DecodeContent(record.SuggestedContent)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "stored suggestion is unreadable")
		return
	}

	fields, err := a.submissions.Fields(submission.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load submission fields")
		return
	}

	merged := make(map[string]any, len(fields)+len(suggested))
	for name, value := range fields {
		merged[name] = value
	}
	for name, value := range suggested {
		merged[name] = value
	}

	if err := a.submissions.UpdateFields(submission.ID, merged); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to apply suggestion")
		return
	}
	if err := a.suggestions.MarkAccepted(record.ID, true); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to mark suggestion accepted")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "suggestion applied"})
}

func suggestionJSON(record db.AISuggestion) gin.H {
	payload := gin.H{
		"id":            record.ID,
		"submission_id": record.SubmissionID,
		"accepted":      record.Accepted,
		"created_at":    record.CreatedAt,
	}
	if content, err := service.DecodeContent(record.SuggestedContent); err == nil {
		payload["content"] = content
	}
	return payload
}
