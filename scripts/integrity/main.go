// 手动执行课程数据一致性检查
//
// 定时任务已按 jobs.integrity_sweep 配置自动执行。
// 此脚本用于手动触发，例如迁移后或排查孤立测验时，报告以 YAML 输出。
//
// 用法: go run ./scripts/integrity [-purge]

package main

import (
	"context"
	"flag"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/pkg/database"
	"learnhub_backend/pkg/logger"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	purge := flag.Bool("purge", false, "删除孤立的测验与小结")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	integrity := service.NewIntegrityService(repository.NewStore(db))

	ctx := context.Background()
	var report *service.IntegrityReport
	if *purge {
		report, err = integrity.Purge(ctx)
	} else {
		report, err = integrity.Scan(ctx)
	}
	if err != nil {
		log.Fatalf("一致性检查失败: %v", err)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		log.Fatalf("输出报告失败: %v", err)
	}
	enc.Close()

	if !report.Clean() && !report.Purged {
		os.Exit(1)
	}
}
