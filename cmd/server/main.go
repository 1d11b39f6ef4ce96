package main

import (
	"log"
	"time"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/config"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/handler"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/router"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/service"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if cfg.ApproverEmail != "" && cfg.ApproverPassword != "" {
		if err := db.EnsureUser(cfg.ApproverEmail, cfg.ApproverName, db.RoleApprover, cfg.ApproverPassword); err != nil {
			log.Fatalf("failed to ensure approver account: %v", err)
		}
	}

	// 启动时补齐当前及下一年度的发布周期
	publications := service.NewPublicationService(db.DB)
	now := time.Now()
	if err := publications.EnsureCurrentYear(now); err != nil {
		log.Fatalf("failed to generate publication cycles: %v", err)
	}
	if _, err := publications.GenerateAnnualCycles(now.Year() + 1); err != nil {
		log.Fatalf("failed to generate next year cycles: %v", err)
	}

	mailer := service.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword)

	api := handler.NewAPI(db.DB, handler.Options{
		Sender:            mailer,
		DefaultRecipients: cfg.EmailRecipients,
	})

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
