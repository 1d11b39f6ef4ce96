package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/form"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/service"
	"github.com/gin-gonic/gin"
)

// FormConfig 返回投稿表单的字段定义，供前端渲染。
func (a *API) FormConfig(c *gin.Context) {
	fields := make([]gin.H, 0, len(a.formSpecs))
	for _, spec := range a.formSpecs {
		field := gin.H{
			"name":     spec.Name,
			"label":    spec.Label,
			"type":     string(spec.Type),
			"required": spec.Required,
		}
		if len(spec.Options) > 0 {
			field["options"] = spec.Options
		}
		if spec.HelpText != "" {
			field["help_text"] = spec.HelpText
		}
		fields = append(fields, field)
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// CreateSubmission 以草稿状态创建投稿。
func (a *API) CreateSubmission(c *gin.Context) {
	var input struct {
		PublicationID uint           `json:"publication_id"`
		ProjectName   string         `json:"project_name"`
		Fields        map[string]any `json:"fields"`
	}
	if !bindJSON(c, &input, "invalid submission payload") {
		return
	}

	problems := a.validateSubmissionInput(input.ProjectName, input.Fields)
	if len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": problems})
		return
	}

	publicationID := input.PublicationID
	if publicationID == 0 {
		pub, err := a.publications.GetActivePublication(time.Now())
		if err != nil {
			if errors.Is(err, service.ErrNoActivePublication) {
				respondError(c, http.StatusConflict, "no open publication to submit to")
				return
			}
			respondError(c, http.StatusInternalServerError, "failed to resolve active publication")
			return
		}
		publicationID = pub.ID
	} else if _, err := a.publications.Get(publicationID); err != nil {
		if errors.Is(err, service.ErrPublicationNotFound) {
			respondError(c, http.StatusNotFound, "publication not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load publication")
		return
	}

	user := currentUser(c)
	submission, err := a.submissions.Create(publicationID, user.Email, input.ProjectName, input.Fields)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to create submission")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"submission": a.submissionJSON(submission, true)})
}

// GetSubmission 返回单条投稿及其字段。
func (a *API) GetSubmission(c *gin.Context) {
	submission, ok := a.loadSubmission(c)
	if !ok {
		return
	}
	if !a.canView(c, submission) {
		respondError(c, http.StatusForbidden, "not allowed to view this submission")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": a.submissionJSON(submission, true)})
}

// ListMySubmissions 返回当前用户的全部投稿。
func (a *API) ListMySubmissions(c *gin.Context) {
	submissions, err := a.submissions.ListByUser(currentUser(c).Email)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": a.submissionListJSON(submissions)})
}

// ListPublicationSubmissions 供审核人按周期查看投稿，可按状态过滤。
func (a *API) ListPublicationSubmissions(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	status := strings.TrimSpace(c.Query("status"))
	submissions, err := a.submissions.ListByPublication(id, status)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": a.submissionListJSON(submissions)})
}

// UpdateSubmission 整体替换投稿字段内容。
func (a *API) UpdateSubmission(c *gin.Context) {
	submission, ok := a.loadSubmission(c)
	if !ok {
		return
	}
	if !a.canEdit(c, submission) {
		respondError(c, http.StatusForbidden, "not allowed to edit this submission")
		return
	}

	var input struct {
		ProjectName string         `json:"project_name"`
		Fields      map[string]any `json:"fields"`
	}
	if !bindJSON(c, &input, "invalid submission payload") {
		return
	}

	projectName := input.ProjectName
	if projectName == "" {
		projectName = submission.ProjectName
	}
	problems := a.validateSubmissionInput(projectName, input.Fields)
	if len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": problems})
		return
	}

	if input.ProjectName != "" && input.ProjectName != submission.ProjectName {
		if err := a.db.Model(&db.Submission{}).Where("id = ?", submission.ID).
			Update("project_name", input.ProjectName).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "failed to update submission")
			return
		}
	}

	if err := a.submissions.UpdateFields(submission.ID, input.Fields); err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			respondError(c, http.StatusNotFound, "submission not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to update submission")
		return
	}

	updated, err := a.submissions.Get(submission.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load submission")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": a.submissionJSON(updated, true)})
}

// SubmitSubmission 将草稿流转到 submitted。
func (a *API) SubmitSubmission(c *gin.Context) {
	submission, ok := a.loadSubmission(c)
	if !ok {
		return
	}
	if !a.canEdit(c, submission) {
		respondError(c, http.StatusForbidden, "not allowed to submit this submission")
		return
	}

	if err := a.submissions.Transition(submission.ID, db.SubmissionStatusSubmitted, ""); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to submit")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "submission sent for review"})
}

// ReviewSubmission 由审核人批准或驳回投稿。
func (a *API) ReviewSubmission(c *gin.Context) {
	submission, ok := a.loadSubmission(c)
	if !ok {
		return
	}

	var input struct {
		Decision string `json:"decision"`
	}
	if !bindJSON(c, &input, "invalid review payload") {
		return
	}

	var status string
	switch strings.ToLower(strings.TrimSpace(input.Decision)) {
	case "approve", db.SubmissionStatusApproved:
		status = db.SubmissionStatusApproved
	case "reject", db.SubmissionStatusRejected:
		status = db.SubmissionStatusRejected
	default:
		respondError(c, http.StatusBadRequest, "decision must be approve or reject")
		return
	}

	if err := a.submissions.Transition(submission.ID, status, currentUser(c).Email); err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			respondError(c, http.StatusNotFound, "submission not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to review submission")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "submission " + status})
}

func (a *API) loadSubmission(c *gin.Context) (*db.Submission, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}

	submission, err := a.submissions.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			respondError(c, http.StatusNotFound, "submission not found")
			return nil, false
		}
		respondError(c, http.StatusInternalServerError, "failed to load submission")
		return nil, false
	}
	return submission, true
}

func (a *API) canView(c *gin.Context, submission *db.Submission) bool {
	user := currentUser(c)
	return user.IsApprover() || user.Email == submission.UserEmail
}

// canEdit 限制只有投稿人本人可以修改内容。
func (a *API) canEdit(c *gin.Context, submission *db.Submission) bool {
	return currentUser(c).Email == submission.UserEmail
}

func (a *API) validateSubmissionInput(projectName string, fields map[string]any) []string {
	problems := form.Validate(fields, a.formSpecs)
	if strings.TrimSpace(projectName) == "" {
		problems = append([]string{"Project Name is required"}, problems...)
	}
	return problems
}

func (a *API) submissionJSON(submission *db.Submission, includeFields bool) gin.H {
	payload := gin.H{
		"id":             submission.ID,
		"publication_id": submission.PublicationID,
		"user_email":     submission.UserEmail,
		"project_name":   submission.ProjectName,
		"status":         submission.Status,
		"created_at":     submission.CreatedAt,
		"updated_at":     submission.UpdatedAt,
	}
	if submission.SubmittedAt != nil {
		payload["submitted_at"] = submission.SubmittedAt
	}
	if submission.ReviewedAt != nil {
		payload["reviewed_by"] = submission.ReviewedBy
		payload["reviewed_at"] = submission.ReviewedAt
	}

	if includeFields {
		fields := make(map[string]string, len(submission.Fields))
		if len(submission.Fields) == 0 {
			loaded, err := a.submissions.Fields(submission.ID)
			if err == nil {
				fields = loaded
			}
		} else {
			for _, field := range submission.Fields {
				fields[field.FieldName] = field.FieldValue
			}
		}
		payload["fields"] = fields
	}
	return payload
}

func (a *API) submissionListJSON(submissions []db.Submission) []gin.H {
	payload := make([]gin.H, 0, len(submissions))
	for _, submission := range submissions {
		payload = append(payload, a.submissionJSON(&submission, false))
	}
	return payload
}
