package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSuggestTestSettings(t *testing.T) (*SystemSettingService, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:ai-suggest-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&db.SystemSetting{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	settings := NewSystemSettingService(gdb)
	_, err = settings.UpdateSettings(SystemSettingsInput{
		AIProvider:   AIProviderOpenAI,
		OpenAIAPIKey: "test-key",
	})
	if err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	return settings, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	}
}

type fakeSuggestHTTPClient struct {
	responses []string
	statuses  []int
	calls     int
	requests  []chatCompletionRequest
}

func (f *fakeSuggestHTTPClient) Do(req *http.Request) (*http.Response, error) {
	index := f.calls
	f.calls++

	var payload chatCompletionRequest
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &payload)
	}
	f.requests = append(f.requests, payload)

	status := http.StatusOK
	if index < len(f.statuses) {
		status = f.statuses[index]
	}

	content := ""
	if index < len(f.responses) {
		content = f.responses[index]
	}

	body := chatCompletionResponse{}
	body.Choices = []struct {
		Message chatMessage `json:"message"`
	}{{Message: chatMessage{Role: "assistant", Content: content}}}
	if status >= http.StatusBadRequest {
		body.Choices = nil
		body.Error.Message = "upstream error"
	}

	raw, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewReader(raw)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func TestSuggestContentReturnsFilteredKeys(t *testing.T) {
	settings, cleanup := setupSuggestTestSettings(t)
	defer cleanup()

	client := &fakeSuggestHTTPClient{responses: []string{
		`{"title":"Better title","description":"Better description","key_achievements":"Shipped it","impact":"Big","extra":"ignored"}`,
	}}

	svc := NewAISuggestService(settings)
	svc.SetHTTPClient(client)

	input := SubmissionContent{
		ProjectName: "Search Revamp",
		Title:       "old",
		Description: "old text",
	}
	suggestions, err := svc.SuggestContent(context.Background(), input)
	if err != nil {
		t.Fatalf("suggest content: %v", err)
	}

	if suggestions["title"] != "Better title" || suggestions["impact"] != "Big" {
		t.Fatalf("unexpected suggestions: %v", suggestions)
	}
	if _, exists := suggestions["extra"]; exists {
		t.Fatal("expected unknown keys to be dropped")
	}
	if client.calls != 1 {
		t.Fatalf("expected a single call, got %d", client.calls)
	}
}

func TestSuggestContentPromptCarriesSubmission(t *testing.T) {
	settings, cleanup := setupSuggestTestSettings(t)
	defer cleanup()

	client := &fakeSuggestHTTPClient{responses: []string{`{"title":"ok"}`}}
	svc := NewAISuggestService(settings)
	svc.SetHTTPClient(client)

	input := SubmissionContent{
		ProjectName:     "Billing Migration",
		Title:           "Zero downtime cutover",
		KeyAchievements: "Migrated 40M rows",
	}
	if _, err := svc.SuggestContent(context.Background(), input); err != nil {
		t.Fatalf("suggest content: %v", err)
	}

	if len(client.requests) != 1 || len(client.requests[0].Messages) != 2 {
		t.Fatalf("unexpected request shape: %+v", client.requests)
	}
	prompt := client.requests[0].Messages[1].Content
	for _, fragment := range []string{"Project: Billing Migration", "Title: Zero downtime cutover", "Key Achievements: Migrated 40M rows"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q: %s", fragment, prompt)
		}
	}
}

func TestSuggestContentParsesWrappedJSON(t *testing.T) {
	settings, cleanup := setupSuggestTestSettings(t)
	defer cleanup()

	client := &fakeSuggestHTTPClient{responses: []string{
		"Here is the improved version:\n```json\n{\"title\":\"Wrapped title\"}\n```",
	}}
	svc := NewAISuggestService(settings)
	svc.SetHTTPClient(client)

	suggestions, err := svc.SuggestContent(context.Background(), SubmissionContent{ProjectName: "X"})
	if err != nil {
		t.Fatalf("suggest content: %v", err)
	}
	if suggestions["title"] != "Wrapped title" {
		t.Fatalf("expected wrapped JSON to be parsed, got %v", suggestions)
	}
}

func TestSuggestContentRetriesTransientFailures(t *testing.T) {
	settings, cleanup := setupSuggestTestSettings(t)
	defer cleanup()

	client := &fakeSuggestHTTPClient{
		statuses:  []int{http.StatusInternalServerError, http.StatusOK},
		responses: []string{"", `{"description":"Recovered"}`},
	}
	svc := NewAISuggestService(settings)
	svc.SetHTTPClient(client)

	suggestions, err := svc.SuggestContent(context.Background(), SubmissionContent{ProjectName: "X"})
	if err != nil {
		t.Fatalf("suggest content: %v", err)
	}
	if suggestions["description"] != "Recovered" {
		t.Fatalf("unexpected suggestions: %v", suggestions)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
}

func TestSuggestContentGivesUpAfterMaxAttempts(t *testing.T) {
	settings, cleanup := setupSuggestTestSettings(t)
	defer cleanup()

	client := &fakeSuggestHTTPClient{
		statuses: []int{http.StatusInternalServerError, http.StatusInternalServerError, http.StatusInternalServerError},
	}
	svc := NewAISuggestService(settings)
	svc.SetHTTPClient(client)

	_, err := svc.SuggestContent(context.Background(), SubmissionContent{ProjectName: "X"})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if client.calls != maxSuggestionAttempts {
		t.Fatalf("expected %d calls, got %d", maxSuggestionAttempts, client.calls)
	}
}

func TestSuggestContentMissingAPIKeyDoesNotRetry(t *testing.T) {
	settings, cleanup := setupSuggestTestSettings(t)
	defer cleanup()

	if _, err := settings.UpdateSettings(SystemSettingsInput{AIProvider: AIProviderOpenAI}); err != nil {
		t.Fatalf("clear api key: %v", err)
	}

	client := &fakeSuggestHTTPClient{}
	svc := NewAISuggestService(settings)
	svc.SetHTTPClient(client)

	_, err := svc.SuggestContent(context.Background(), SubmissionContent{ProjectName: "X"})
	if !errors.Is(err, ErrAIAPIKeyMissing) {
		t.Fatalf("expected ErrAIAPIKeyMissing, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("expected no http calls, got %d", client.calls)
	}
}

func TestParseSuggestionJSONRejectsEmptyContent(t *testing.T) {
	cases := []string{"", "   ", "no json here", `{"unknown":"key"}`, `{"title":"   "}`}
	for _, content := range cases {
		if _, err := parseSuggestionJSON(content); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}
