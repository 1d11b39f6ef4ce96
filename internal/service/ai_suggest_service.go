package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	defaultOpenAISuggestModel    = "gpt-4o-mini"
	defaultDeepSeekSuggestModel  = "deepseek-chat"
	defaultSuggestionMaxTokens   = 2000
	defaultSuggestionTemperature = 0.7
	maxSuggestionAttempts        = 3
)

// ErrSuggestionEmpty 表示模型未返回可解析的建议内容。
var ErrSuggestionEmpty = errors.New("ai suggestion returned no usable content")

// SubmissionContent 描述一次内容润色请求携带的投稿信息。
type SubmissionContent struct {
	ProjectName     string
	Title           string
	Description     string
	KeyAchievements string
	Impact          string
	Category        string
}

// suggestionKeys 是模型响应中允许出现的字段键。
var suggestionKeys = []string{"title", "description", "key_achievements", "impact"}

// ContentSuggester 定义内容润色能力，便于在业务层注入不同实现。
// 返回 nil 映射表示没有可用建议；调用方必须将其当作 no-op 处理。
type ContentSuggester interface {
	SuggestContent(ctx context.Context, input SubmissionContent) (map[string]string, error)
}

// AISuggestService 基于大模型接口为投稿内容生成润色建议。
type AISuggestService struct {
	client *aiChatClient
}

// NewAISuggestService 构造默认的 AISuggestService。
func NewAISuggestService(settings *SystemSettingService) *AISuggestService {
	return &AISuggestService{
		client: newAIChatClient(settings, defaultOpenAISuggestModel, defaultDeepSeekSuggestModel),
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *AISuggestService) SetHTTPClient(client httpDoer) {
	s.client.SetHTTPClient(client)
}

// SetOpenAIBaseURL 覆盖默认的 OpenAI API 地址。
func (s *AISuggestService) SetOpenAIBaseURL(base string) {
	s.client.SetOpenAIBaseURL(base)
}

// SetDeepSeekBaseURL 覆盖默认的 DeepSeek API 地址。
func (s *AISuggestService) SetDeepSeekBaseURL(base string) {
	s.client.SetDeepSeekBaseURL(base)
}

// SetOpenAIModel 指定 OpenAI 润色所使用的模型名称。
func (s *AISuggestService) SetOpenAIModel(model string) {
	s.client.SetOpenAIModel(model)
}

// SetDeepSeekModel 指定 DeepSeek 润色所使用的模型名称。
func (s *AISuggestService) SetDeepSeekModel(model string) {
	s.client.SetDeepSeekModel(model)
}

// NewSubmissionContent 从项目名称和字段映射组装润色请求。
func NewSubmissionContent(projectName string, fields map[string]string) SubmissionContent {
	return SubmissionContent{
		ProjectName:     strings.TrimSpace(projectName),
		Title:           fields["title"],
		Description:     fields["description"],
		KeyAchievements: fields["key_achievements"],
		Impact:          fields["impact"],
		Category:        fields["category"],
	}
}

// SuggestContent calls the configured AI platform and returns an
// improved field mapping keyed by title/description/key_achievements/
// impact. Transient failures are retried a fixed number of times; the
// final failure is surfaced to the caller, who treats a missing
// suggestion as a no-op rather than an error in the workflow.
func (s *AISuggestService) SuggestContent(ctx context.Context, input SubmissionContent) (map[string]string, error) {
	userPrompt := buildSuggestionPrompt(input)
	logAIExchange("SUGGEST", "prompt", userPrompt)

	var lastErr error
	for attempt := 1; attempt <= maxSuggestionAttempts; attempt++ {
		result, err := s.client.call(ctx, aiChatRequest{
			SystemPrompt: suggestionSystemPrompt,
			UserPrompt:   userPrompt,
			MaxTokens:    defaultSuggestionMaxTokens,
			Temperature:  defaultSuggestionTemperature,
		})
		if err != nil {
			// 缺少 API Key 属于配置问题，重试没有意义
			if errors.Is(err, ErrAIAPIKeyMissing) {
				return nil, err
			}
			lastErr = err
			continue
		}

		logAIExchange("SUGGEST", "response", result.Content)

		suggestions, err := parseSuggestionJSON(result.Content)
		if err != nil {
			lastErr = err
			continue
		}

		return suggestions, nil
	}

	if lastErr == nil {
		lastErr = ErrSuggestionEmpty
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxSuggestionAttempts, lastErr)
}

const suggestionSystemPrompt = "You are helping improve organizational spotlight submissions for internal communications. " +
	"Given a submission, enhance it to: improve clarity and readability; highlight key achievements and impact more effectively; " +
	"use professional, engaging language appropriate for company-wide communications; keep it concise while maintaining all important details; " +
	"and ensure the tone is positive and celebrates the achievement. " +
	"Return your response in JSON format with these exact keys: \"title\", \"description\", \"key_achievements\", \"impact\". " +
	"Do not include any other keys or commentary."

func buildSuggestionPrompt(input SubmissionContent) string {
	var builder strings.Builder
	builder.WriteString("Original submission:\n")
	fmt.Fprintf(&builder, "Project: %s\n", valueOrNA(input.ProjectName))
	fmt.Fprintf(&builder, "Title: %s\n", input.Title)
	fmt.Fprintf(&builder, "Description: %s\n", input.Description)
	fmt.Fprintf(&builder, "Key Achievements: %s\n", input.KeyAchievements)
	fmt.Fprintf(&builder, "Impact & Results: %s\n", input.Impact)
	fmt.Fprintf(&builder, "Category: %s\n", valueOrNA(input.Category))
	return builder.String()
}

// parseSuggestionJSON 宽容地解析模型响应：优先整体解析 JSON，
// 失败时回退到截取首尾花括号之间的片段。
func parseSuggestionJSON(content string) (map[string]string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrSuggestionEmpty
	}

	raw := map[string]string{}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		start := strings.Index(trimmed, "{")
		end := strings.LastIndex(trimmed, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("suggestion is not valid JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &raw); err != nil {
			return nil, fmt.Errorf("suggestion is not valid JSON: %w", err)
		}
	}

	suggestions := make(map[string]string, len(suggestionKeys))
	for _, key := range suggestionKeys {
		if value, ok := raw[key]; ok && strings.TrimSpace(value) != "" {
			suggestions[key] = strings.TrimSpace(value)
		}
	}

	if len(suggestions) == 0 {
		return nil, ErrSuggestionEmpty
	}
	return suggestions, nil
}

func valueOrNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}
