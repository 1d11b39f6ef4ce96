package main

import (
	"fmt"
	"log"
	"time"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/config"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/service"
)

// 测试数据生成器
func main() {
	// 初始化数据库
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	createTestUsers()
	createTestCycles()
	createTestSubmissions()

	fmt.Println("测试数据生成完成！")
	fmt.Println("审核人: approver@example.com (密码: approver123)")
	fmt.Println("投稿人: alice@example.com / bob@example.com (密码: user123)")
}

// 创建测试用户
func createTestUsers() {
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，跳过创建")
		return
	}

	accounts := []struct {
		email string
		name  string
		role  string
		pass  string
	}{
		{"approver@example.com", "Pat Approver", db.RoleApprover, "approver123"},
		{"alice@example.com", "Alice Chen", db.RoleUser, "user123"},
		{"bob@example.com", "Bob Rivera", db.RoleUser, "user123"},
	}
	for _, account := range accounts {
		if err := db.EnsureUser(account.email, account.name, account.role, account.pass); err != nil {
			log.Fatal("创建用户失败:", err)
		}
	}
	fmt.Printf("已创建 %d 个用户\n", len(accounts))
}

// 创建当前年份的发布周期
func createTestCycles() {
	publications := service.NewPublicationService(db.DB)
	created, err := publications.GenerateAnnualCycles(time.Now().Year())
	if err != nil {
		log.Fatal("生成发布周期失败:", err)
	}
	fmt.Printf("已生成 %d 个发布周期\n", len(created))
}

// 向当前周期写入示例投稿
func createTestSubmissions() {
	var count int64
	db.DB.Model(&db.Submission{}).Count(&count)
	if count > 0 {
		fmt.Println("投稿已存在，跳过创建")
		return
	}

	publications := service.NewPublicationService(db.DB)
	pub, err := publications.GetActivePublication(time.Now())
	if err != nil {
		log.Fatal("未找到当前周期:", err)
	}

	created, err := seedSampleSubmissions(db.DB, pub.ID)
	if err != nil {
		log.Fatal("创建投稿失败:", err)
	}
	fmt.Printf("已创建 %d 条示例投稿\n", created)
}
