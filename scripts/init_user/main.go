package main

import (
	"fmt"
	"log"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/config"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
)

func main() {
	// 初始化数据库
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	// 检查是否已存在用户
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，无需初始化")
		return
	}

	if err := db.EnsureUser("approver@example.com", "Default Approver", db.RoleApprover, "approver123"); err != nil {
		log.Fatal("创建审核人失败:", err)
	}
	if err := db.EnsureUser("user@example.com", "Default User", db.RoleUser, "user123"); err != nil {
		log.Fatal("创建投稿人失败:", err)
	}

	fmt.Println("默认账号创建成功")
	fmt.Println("审核人: approver@example.com (密码: approver123)")
	fmt.Println("投稿人: user@example.com (密码: user123)")
}
