// 手动触发题库种子脚本
//
// 题库种子已集成到主应用的启动迁移中（题库为空时自动写入）。
// 此脚本仅用于手动触发，例如清库重建后不想重启主服务时。
//
// 用法: go run scripts/seed_questions.go

package main

import (
	"log"
	"os"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/pkg/database"
	"lingua_edu_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("手动触发题库种子...")
	if err := database.SeedQuestionBank(db); err != nil {
		log.Fatalf("题库种子失败: %v", err)
	}
	log.Println("完成！")
}
