package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/service"
	"github.com/gin-gonic/gin"
)

type stubSuggester struct {
	result map[string]string
	err    error
	calls  int
}

func (s *stubSuggester) SuggestContent(_ context.Context, _ service.SubmissionContent) (map[string]string, error) {
	s.calls++
	return s.result, s.err
}

func seedDraftWithFields(t *testing.T, api *API) db.Submission {
	t.Helper()
	pub := db.Publication{Year: 2026, Month: 6, Period: db.PeriodFirstHalf, Status: db.PublicationStatusOpen}
	if err := api.DB().Create(&pub).Error; err != nil {
		t.Fatalf("seed publication: %v", err)
	}
	sub := db.Submission{
		PublicationID: pub.ID,
		UserEmail:     "alice@example.com",
		ProjectName:   "Search Revamp",
		Status:        db.SubmissionStatusDraft,
		Fields: []db.SubmissionField{
			{FieldName: "title", FieldValue: "old title"},
			{FieldName: "description", FieldValue: "old description"},
			{FieldName: "category", FieldValue: "Innovation"},
		},
	}
	if err := api.DB().Create(&sub).Error; err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	return sub
}

func TestGenerateSuggestionRecordsAuditEntry(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()

	suggester := &stubSuggester{result: map[string]string{"title": "Sharper title"}}
	api.suggester = suggester

	sub := seedDraftWithFields(t, api)

	w := httptest.NewRecorder()
	c := testContext(w, jsonRequest(t, http.MethodPost, "/api/submissions/1/suggestions", nil),
		RequestUser{Email: "alice@example.com", Role: db.RoleUser})
	c.Params = idParam(sub.ID)

	api.GenerateSuggestion(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if suggester.calls != 1 {
		t.Fatalf("expected one suggester call, got %d", suggester.calls)
	}

	var response struct {
		Suggestion struct {
			ID      uint              `json:"id"`
			Content map[string]string `json:"content"`
		} `json:"suggestion"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Suggestion.Content["title"] != "Sharper title" {
		t.Fatalf("unexpected suggestion: %v", response.Suggestion.Content)
	}

	var record db.AISuggestion
	if err := api.DB().First(&record, response.Suggestion.ID).Error; err != nil {
		t.Fatalf("load audit record: %v", err)
	}
	if record.SubmissionID != sub.ID || record.Accepted {
		t.Fatalf("unexpected audit record: %+v", record)
	}
}

func TestGenerateSuggestionFailureReturnsNullSuggestion(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()

	api.suggester = &stubSuggester{err: errors.New("upstream down")}
	sub := seedDraftWithFields(t, api)

	w := httptest.NewRecorder()
	c := testContext(w, jsonRequest(t, http.MethodPost, "/api/submissions/1/suggestions", nil),
		RequestUser{Email: "alice@example.com", Role: db.RoleUser})
	c.Params = idParam(sub.ID)

	api.GenerateSuggestion(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response["suggestion"] != nil {
		t.Fatalf("expected null suggestion, got %v", response["suggestion"])
	}

	var count int64
	if err := api.DB().Model(&db.AISuggestion{}).Count(&count).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no audit record on failure, got %d", count)
	}
}

func TestAcceptSuggestionMergesFields(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()

	sub := seedDraftWithFields(t, api)

	suggestions := service.NewSuggestionService(api.DB())
	record, err := suggestions.Save(sub.ID,
		map[string]string{"title": "old title"},
		map[string]string{"title": "Sharper title", "impact": "Now measurable"},
		false)
	if err != nil {
		t.Fatalf("seed suggestion: %v", err)
	}

	w := httptest.NewRecorder()
	c := testContext(w, jsonRequest(t, http.MethodPost, "/api/submissions/1/suggestions/1/accept", nil),
		RequestUser{Email: "alice@example.com", Role: db.RoleUser})
	c.Params = gin.Params{
		gin.Param{Key: "id", Value: strconv.Itoa(int(sub.ID))},
		gin.Param{Key: "suggestionId", Value: strconv.Itoa(int(record.ID))},
	}

	api.AcceptSuggestion(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	fields, err := service.NewSubmissionService(api.DB()).Fields(sub.ID)
	if err != nil {
		t.Fatalf("load fields: %v", err)
	}
	if fields["title"] != "Sharper title" {
		t.Fatalf("expected suggested title applied, got %q", fields["title"])
	}
	if fields["impact"] != "Now measurable" {
		t.Fatalf("expected new field added, got %q", fields["impact"])
	}
	if fields["description"] != "old description" {
		t.Fatalf("expected untouched field kept, got %q", fields["description"])
	}

	var reloaded db.AISuggestion
	if err := api.DB().First(&reloaded, record.ID).Error; err != nil {
		t.Fatalf("reload suggestion: %v", err)
	}
	if !reloaded.Accepted {
		t.Fatal("expected suggestion marked accepted")
	}
}

func TestAcceptSuggestionWrongSubmission(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()

	sub := seedDraftWithFields(t, api)
	other := db.Submission{PublicationID: sub.PublicationID, UserEmail: "alice@example.com", ProjectName: "Other", Status: db.SubmissionStatusDraft}
	if err := api.DB().Create(&other).Error; err != nil {
		t.Fatalf("seed other submission: %v", err)
	}

	suggestions := service.NewSuggestionService(api.DB())
	record, err := suggestions.Save(other.ID, nil, map[string]string{"title": "x"}, false)
	if err != nil {
		t.Fatalf("seed suggestion: %v", err)
	}

	w := httptest.NewRecorder()
	c := testContext(w, jsonRequest(t, http.MethodPost, "/api/submissions/1/suggestions/1/accept", nil),
		RequestUser{Email: "alice@example.com", Role: db.RoleUser})
	c.Params = gin.Params{
		gin.Param{Key: "id", Value: strconv.Itoa(int(sub.ID))},
		gin.Param{Key: "suggestionId", Value: strconv.Itoa(int(record.ID))},
	}

	api.AcceptSuggestion(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
