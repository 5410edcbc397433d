package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/resiliencetracker/internal/auth"
	"github.com/resiliencetracker/internal/config"
	"github.com/resiliencetracker/internal/db"
)

// 创建咨询师账号，未指定密码时生成一个随机密码
func main() {
	email := flag.String("email", "", "counsellor email")
	password := flag.String("password", "", "counsellor password (generated when empty)")
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		log.Fatal("缺少 -email 参数")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("读取配置失败:", err)
	}

	// 初始化数据库
	gdb, err := db.Open(db.Options{DatabaseURL: cfg.DatabaseURL, DatabasePath: cfg.DatabasePath})
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal("数据库迁移失败:", err)
	}

	// 检查是否已存在该用户
	var count int64
	gdb.Unscoped().Model(&db.User{}).Where("email = ?", db.NormalizeEmail(*email)).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，无需初始化")
		return
	}

	pw := strings.TrimSpace(*password)
	if pw == "" {
		if pw, err = auth.GeneratePassword(); err != nil {
			log.Fatal("生成密码失败:", err)
		}
	}

	if err := db.EnsureCounsellor(gdb, *email, pw); err != nil {
		log.Fatal("创建用户失败:", err)
	}

	fmt.Println("咨询师账号创建成功")
	fmt.Println("邮箱:", db.NormalizeEmail(*email))
	fmt.Println("密码:", pw)
}
