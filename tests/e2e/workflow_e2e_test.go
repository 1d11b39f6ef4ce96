package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/handler"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/router"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// localClient 将请求直接交给内存中的 handler，并用 cookie jar 维持会话。
type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(t *testing.T, h http.Handler) *localClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &localClient{handler: h, jar: jar}
}

func (c *localClient) do(t *testing.T, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, "http://spotlight.local"+path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)

	resp := rr.Result()
	if u, err := url.Parse("http://spotlight.local" + path); err == nil {
		c.jar.SetCookies(u, resp.Cookies())
	}

	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, raw
}

type memorySender struct {
	mu         sync.Mutex
	calls      int
	items      []service.SpotlightItem
	recipients []string
	pubName    string
}

func (m *memorySender) SendPublication(_ context.Context, pub db.Publication, items []service.SpotlightItem, recipients []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.items = items
	m.recipients = recipients
	m.pubName = pub.DisplayName()
	return nil
}

func setupSuite(t *testing.T) (*localClient, *localClient, *memorySender, *gorm.DB, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:e2e-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	models := []any{
		&db.User{}, &db.Publication{}, &db.Submission{},
		&db.SubmissionField{}, &db.AISuggestion{}, &db.SystemSetting{},
	}
	if err := gdb.AutoMigrate(models...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	users := service.NewUserService(gdb)
	if _, err := users.Create("alice@example.com", "Alice", db.RoleUser, "user-pass"); err != nil {
		t.Fatalf("seed submitter: %v", err)
	}
	if _, err := users.Create("pat@example.com", "Pat", db.RoleApprover, "approver-pass"); err != nil {
		t.Fatalf("seed approver: %v", err)
	}

	sender := &memorySender{}
	api := handler.NewAPI(gdb, handler.Options{
		Sender:            sender,
		DefaultRecipients: []string{"everyone@example.com"},
	})
	r := router.SetupRouter(api, "e2e-secret")

	submitter := newLocalClient(t, r)
	approver := newLocalClient(t, r)

	login := func(client *localClient, email, password string) {
		resp, body := client.do(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email": email, "password": password,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("login %s failed: %d %s", email, resp.StatusCode, body)
		}
	}
	login(submitter, "alice@example.com", "user-pass")
	login(approver, "pat@example.com", "approver-pass")

	return submitter, approver, sender, gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	}
}

func TestSpotlightWorkflowEndToEnd(t *testing.T) {
	submitter, approver, sender, gdb, cleanup := setupSuite(t)
	defer cleanup()

	// 审核人生成当年全部周期
	resp, body := approver.do(t, http.MethodPost, "/api/approver/publications/cycles",
		map[string]any{"year": time.Now().Year()})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate cycles: %d %s", resp.StatusCode, body)
	}

	// 投稿人读取当前周期
	resp, body = submitter.do(t, http.MethodGet, "/api/publications/active", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("active publication: %d %s", resp.StatusCode, body)
	}
	var active struct {
		Publication struct {
			ID          uint   `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"publication"`
	}
	if err := json.Unmarshal(body, &active); err != nil {
		t.Fatalf("decode active publication: %v", err)
	}

	// 创建草稿投稿
	resp, body = submitter.do(t, http.MethodPost, "/api/submissions", map[string]any{
		"publication_id": active.Publication.ID,
		"project_name":   "Search Revamp",
		"fields": map[string]any{
			"title":            "Faster search for everyone",
			"description":      "We rebuilt the ranking pipeline.",
			"key_achievements": "- Latency cut in half\n- Zero downtime rollout",
			"impact":           "Search abandonment dropped noticeably.",
			"category":         "Innovation",
			"tags":             []string{"AI/ML", "Efficiency"},
			"team_members":     "Alice, Bob",
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create submission: %d %s", resp.StatusCode, body)
	}
	var created struct {
		Submission struct {
			ID     uint   `json:"id"`
			Status string `json:"status"`
		} `json:"submission"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode submission: %v", err)
	}
	if created.Submission.Status != db.SubmissionStatusDraft {
		t.Fatalf("expected draft, got %q", created.Submission.Status)
	}

	submissionPath := fmt.Sprintf("/api/submissions/%d", created.Submission.ID)

	// 提交审核
	resp, body = submitter.do(t, http.MethodPost, submissionPath+"/submit", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: %d %s", resp.StatusCode, body)
	}

	// 发布前审核尚未完成，应被拒绝
	publishPath := fmt.Sprintf("/api/approver/publications/%d/publish", active.Publication.ID)
	resp, _ = approver.do(t, http.MethodPost, publishPath, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 before review, got %d", resp.StatusCode)
	}

	// 审核通过
	reviewPath := fmt.Sprintf("/api/approver/submissions/%d/review", created.Submission.ID)
	resp, body = approver.do(t, http.MethodPost, reviewPath, map[string]any{"decision": "approve"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("review: %d %s", resp.StatusCode, body)
	}

	// 普通投稿人无权审核
	resp, _ = submitter.do(t, http.MethodPost, reviewPath, map[string]any{"decision": "approve"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for submitter review, got %d", resp.StatusCode)
	}

	// 关闭周期并发布
	closePath := fmt.Sprintf("/api/approver/publications/%d/close", active.Publication.ID)
	resp, body = approver.do(t, http.MethodPost, closePath, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close: %d %s", resp.StatusCode, body)
	}

	resp, body = approver.do(t, http.MethodPost, publishPath, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("publish: %d %s", resp.StatusCode, body)
	}

	if sender.calls != 1 {
		t.Fatalf("expected one email send, got %d", sender.calls)
	}
	if len(sender.items) != 1 || sender.items[0].ProjectName != "Search Revamp" {
		t.Fatalf("unexpected email items: %+v", sender.items)
	}
	if sender.items[0].Fields["tags"] != "AI/ML, Efficiency" {
		t.Fatalf("expected flattened tags in email, got %q", sender.items[0].Fields["tags"])
	}
	if len(sender.recipients) != 1 || sender.recipients[0] != "everyone@example.com" {
		t.Fatalf("unexpected recipients: %v", sender.recipients)
	}
	if !strings.Contains(sender.pubName, "Half") {
		t.Fatalf("unexpected publication name: %q", sender.pubName)
	}

	var pub db.Publication
	if err := gdb.First(&pub, active.Publication.ID).Error; err != nil {
		t.Fatalf("reload publication: %v", err)
	}
	if pub.Status != db.PublicationStatusPublished || pub.PublishedAt == nil {
		t.Fatalf("expected published cycle, got %q/%v", pub.Status, pub.PublishedAt)
	}

	// 已发布列表可见
	resp, body = submitter.do(t, http.MethodGet, "/api/publications/published", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("published list: %d %s", resp.StatusCode, body)
	}
	var published struct {
		Publications []struct {
			ID uint `json:"id"`
		} `json:"publications"`
	}
	if err := json.Unmarshal(body, &published); err != nil {
		t.Fatalf("decode published list: %v", err)
	}
	if len(published.Publications) != 1 || published.Publications[0].ID != active.Publication.ID {
		t.Fatalf("unexpected published list: %+v", published.Publications)
	}
}

func TestRejectedSubmissionDoesNotBlockPublish(t *testing.T) {
	submitter, approver, sender, _, cleanup := setupSuite(t)
	defer cleanup()

	resp, body := approver.do(t, http.MethodPost, "/api/approver/publications/cycles",
		map[string]any{"year": time.Now().Year()})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate cycles: %d %s", resp.StatusCode, body)
	}

	createSubmission := func(project string) uint {
		resp, body := submitter.do(t, http.MethodPost, "/api/submissions", map[string]any{
			"project_name": project,
			"fields": map[string]any{
				"title":            project + " title",
				"description":      "Description.",
				"key_achievements": "Achievements.",
				"impact":           "Impact.",
				"category":         "Other",
			},
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create submission: %d %s", resp.StatusCode, body)
		}
		var created struct {
			Submission struct {
				ID uint `json:"id"`
			} `json:"submission"`
		}
		if err := json.Unmarshal(body, &created); err != nil {
			t.Fatalf("decode submission: %v", err)
		}

		resp, _ = submitter.do(t, http.MethodPost, fmt.Sprintf("/api/submissions/%d/submit", created.Submission.ID), nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("submit %s: %d", project, resp.StatusCode)
		}
		return created.Submission.ID
	}

	keptID := createSubmission("Kept")
	droppedID := createSubmission("Dropped")

	review := func(id uint, decision string) {
		resp, body := approver.do(t, http.MethodPost,
			fmt.Sprintf("/api/approver/submissions/%d/review", id), map[string]any{"decision": decision})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("review %d: %d %s", id, resp.StatusCode, body)
		}
	}
	review(keptID, "approve")
	review(droppedID, "reject")

	resp, body = submitter.do(t, http.MethodGet, "/api/publications/active", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("active publication: %d %s", resp.StatusCode, body)
	}
	var active struct {
		Publication struct {
			ID uint `json:"id"`
		} `json:"publication"`
	}
	if err := json.Unmarshal(body, &active); err != nil {
		t.Fatalf("decode active publication: %v", err)
	}

	resp, body = approver.do(t, http.MethodPost,
		fmt.Sprintf("/api/approver/publications/%d/publish", active.Publication.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("publish: %d %s", resp.StatusCode, body)
	}

	if len(sender.items) != 1 || sender.items[0].ProjectName != "Kept" {
		t.Fatalf("expected only approved submission in email, got %+v", sender.items)
	}
}
