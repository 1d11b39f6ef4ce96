package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	AppName          string
	ListenAddr       string
	Port             string
	DatabasePath     string
	SessionSecret    string
	GinMode          string
	SMTPHost         string
	SMTPPort         string
	SMTPEmail        string
	SMTPPassword     string
	EmailRecipients  []string
	ApproverEmail    string
	ApproverName     string
	ApproverPassword string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 若工作目录存在 .env 文件会先行加载。
func Load() AppConfig {
	_ = godotenv.Load()

	appName := strings.TrimSpace(os.Getenv("APP_NAME"))
	if appName == "" {
		appName = "Organizational Spotlight"
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "spotlight.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "spotlight-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	smtpHost := strings.TrimSpace(os.Getenv("SMTP_HOST"))
	if smtpHost == "" {
		smtpHost = "smtp.office365.com"
	}

	smtpPort := strings.TrimSpace(os.Getenv("SMTP_PORT"))
	if smtpPort == "" {
		smtpPort = "587"
	}

	return AppConfig{
		AppName:          appName,
		ListenAddr:       listenAddr,
		Port:             port,
		DatabasePath:     databasePath,
		SessionSecret:    sessionSecret,
		GinMode:          ginMode,
		SMTPHost:         smtpHost,
		SMTPPort:         smtpPort,
		SMTPEmail:        strings.TrimSpace(os.Getenv("SMTP_EMAIL")),
		SMTPPassword:     strings.TrimSpace(os.Getenv("SMTP_PASSWORD")),
		EmailRecipients:  splitRecipients(os.Getenv("EMAIL_RECIPIENTS")),
		ApproverEmail:    strings.TrimSpace(os.Getenv("APPROVER_EMAIL")),
		ApproverName:     strings.TrimSpace(os.Getenv("APPROVER_NAME")),
		ApproverPassword: strings.TrimSpace(os.Getenv("APPROVER_PASSWORD")),
	}
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	recipients := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		recipients = append(recipients, trimmed)
	}
	return recipients
}
