package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort string
	Debug      bool

	// 车队数据文档路径
	DataFile string

	// 管理口令，删除车辆时校验；为空则拒绝所有删除请求
	AdminToken string
}

func Load() (*Config, error) {
	// 尝试加载 .env 文件（可选）
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getEnv("PORT", "4000"),
		Debug:      getEnvBool("DEBUG", false),
		DataFile:   getEnv("DATA_FILE", "fleet.json"),
		AdminToken: getEnv("ADMIN_TOKEN", ""),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}
