package form

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	maxTextLength     = 200
	maxTextareaLength = 5000
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var sanitizePolicy = bluemonday.UGCPolicy()

// ValidateEmail 检查邮箱格式，返回空字符串表示合法。
func ValidateEmail(email string) string {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "Email is required"
	}
	if !emailPattern.MatchString(trimmed) {
		return "Invalid email format"
	}
	return ""
}

// Validate checks submitted values against the field specs and returns
// every violated rule at once. An empty slice means the submission is
// valid. Values may be strings or string lists (multiselect).
func Validate(values map[string]any, specs []FieldSpec) []string {
	var errs []string

	for _, spec := range specs {
		value, ok := values[spec.Name]

		if spec.Required && isEmptyValue(value) {
			errs = append(errs, fmt.Sprintf("%s is required", spec.Label))
			continue
		}

		// 可选字段为空时跳过后续校验
		if !ok || isEmptyValue(value) {
			continue
		}

		switch spec.Type {
		case FieldText, FieldTextarea:
			text, ok := value.(string)
			if !ok {
				errs = append(errs, fmt.Sprintf("%s must be text", spec.Label))
				continue
			}
			limit := maxTextLength
			if spec.Type == FieldTextarea {
				limit = maxTextareaLength
			}
			if len(strings.TrimSpace(text)) > limit {
				errs = append(errs, fmt.Sprintf("%s must not exceed %d characters", spec.Label, limit))
			}
		case FieldSelect:
			text, ok := value.(string)
			if !ok || !containsOption(spec.Options, text) {
				errs = append(errs, fmt.Sprintf("%s must be one of the available options", spec.Label))
			}
		case FieldMultiSelect:
			items, ok := stringList(value)
			if !ok {
				errs = append(errs, fmt.Sprintf("%s must be a list", spec.Label))
				continue
			}
			for _, item := range items {
				if !containsOption(spec.Options, item) {
					errs = append(errs, fmt.Sprintf("%s contains an unknown option", spec.Label))
					break
				}
			}
		}
	}

	return errs
}

// Sanitize 过滤字段值中的危险 HTML，防止注入到发布邮件中。
func Sanitize(value string) string {
	return sanitizePolicy.Sanitize(value)
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func containsOption(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}

func stringList(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			text, ok := item.(string)
			if !ok {
				return nil, false
			}
			items = append(items, text)
		}
		return items, true
	default:
		return nil, false
	}
}
