// 为本地联调签发 JWT
//
// 用户身份由外部认证系统负责，本服务只校验 token。
// 开发环境下用此脚本生成与 jwt.secret 匹配的 token。
//
// 用法: go run ./scripts/devtoken -user u1 -role instructor -name "Ada"

package main

import (
	"flag"
	"fmt"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"log"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	userID := flag.String("user", "", "用户 ID")
	role := flag.String("role", string(model.Student), "角色: student | instructor | admin")
	name := flag.String("name", "", "显示名称")
	email := flag.String("email", "", "邮箱")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user 不能为空")
	}
	if !model.UserRole(*role).Valid() {
		log.Fatalf("无效角色: %s", *role)
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	user := &model.User{
		FullName: *name,
		Email:    *email,
		Role:     model.UserRole(*role),
	}
	user.ID = *userID

	token, err := util.GenerateJWT(user, cfg.JWT.Secret, cfg.JWT.ExpireTime)
	if err != nil {
		log.Fatalf("签发失败: %v", err)
	}
	fmt.Println(token)
}
