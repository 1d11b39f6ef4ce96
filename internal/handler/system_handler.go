package handler

import (
	"errors"
	"net/http"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/form"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/service"
	"github.com/gin-gonic/gin"
)

// GetSystemSettings 返回后台系统设置，密钥只返回是否已配置。
func (a *API) GetSystemSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": gin.H{
		"site_name":        settings.SiteName,
		"ai_provider":      settings.AIProvider,
		"openai_key_set":   settings.OpenAIAPIKey != "",
		"deepseek_key_set": settings.DeepSeekAPIKey != "",
		"email_recipients": settings.EmailRecipients,
	}})
}

// UpdateSystemSettings 保存后台系统设置。
func (a *API) UpdateSystemSettings(c *gin.Context) {
	var input struct {
		SiteName        string   `json:"site_name"`
		AIProvider      string   `json:"ai_provider"`
		OpenAIAPIKey    string   `json:"openai_api_key"`
		DeepSeekAPIKey  string   `json:"deepseek_api_key"`
		EmailRecipients []string `json:"email_recipients"`
	}
	if !bindJSON(c, &input, "invalid settings payload") {
		return
	}

	problems := make([]string, 0)
	for _, recipient := range input.EmailRecipients {
		if msg := form.ValidateEmail(recipient); msg != "" {
			problems = append(problems, msg+": "+recipient)
		}
	}
	if len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": problems})
		return
	}

	settings, err := a.system.UpdateSettings(service.SystemSettingsInput{
		SiteName:        input.SiteName,
		AIProvider:      input.AIProvider,
		OpenAIAPIKey:    input.OpenAIAPIKey,
		DeepSeekAPIKey:  input.DeepSeekAPIKey,
		EmailRecipients: input.EmailRecipients,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": gin.H{
		"site_name":        settings.SiteName,
		"ai_provider":      settings.AIProvider,
		"email_recipients": settings.EmailRecipients,
	}})
}

// TestAIConnection 校验指定平台的 API Key 是否可用。
func (a *API) TestAIConnection(c *gin.Context) {
	var input struct {
		Provider string `json:"provider"`
		APIKey   string `json:"api_key"`
	}
	if !bindJSON(c, &input, "invalid test payload") {
		return
	}

	err := a.system.TestAIConnection(c.Request.Context(), input.Provider, input.APIKey)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "connection ok"})
	case errors.Is(err, service.ErrAIAPIKeyMissing):
		respondError(c, http.StatusBadRequest, "api key is required")
	default:
		respondError(c, http.StatusBadGateway, "connection test failed")
	}
}

// SendTestEmail 发送一封测试邮件验证 SMTP 配置。
func (a *API) SendTestEmail(c *gin.Context) {
	var input struct {
		Recipient string `json:"recipient"`
	}
	if !bindJSON(c, &input, "invalid test payload") {
		return
	}
	if msg := form.ValidateEmail(input.Recipient); msg != "" {
		respondError(c, http.StatusBadRequest, msg)
		return
	}

	mailer, ok := a.sender.(*service.EmailService)
	if !ok || mailer == nil {
		respondError(c, http.StatusServiceUnavailable, "email delivery is not configured")
		return
	}

	if err := mailer.SendTestEmail(input.Recipient); err != nil {
		if errors.Is(err, service.ErrSMTPNotConfigured) {
			respondError(c, http.StatusServiceUnavailable, "smtp credentials are not configured")
			return
		}
		respondError(c, http.StatusBadGateway, "failed to send test email")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "test email sent"})
}
