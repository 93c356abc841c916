package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `json:"server"`
	Store     StoreConfig     `json:"store"`
	Auth      AuthConfig      `json:"auth"`
	VIN       VINConfig       `json:"vin"`
	RateLimit RateLimitConfig `json:"ratelimit"`
	Consul    ConsulConfig    `json:"consul"`
	Jaeger    JaegerConfig    `json:"jaeger"`
	Log       LogConfig       `json:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name     string `json:"name"`      // 服务名称
	Host     string `json:"host"`      // 服务地址
	HTTPPort int    `json:"http_port"` // HTTP端口
}

// StoreConfig 文档存储配置
type StoreConfig struct {
	DataDir    string `json:"data_dir"`   // 后备文档所在目录
	Durability string `json:"durability"` // direct / staged
}

// InventoryPath 库存文档路径
func (s StoreConfig) InventoryPath() string {
	return filepath.Join(s.DataDir, "dealership.xml")
}

// SalesPath 销售文档路径
func (s StoreConfig) SalesPath() string {
	return filepath.Join(s.DataDir, "sales.xml")
}

// UsersPath 用户文档路径
func (s StoreConfig) UsersPath() string {
	return filepath.Join(s.DataDir, "users.xml")
}

// AuthConfig 鉴权配置
type AuthConfig struct {
	Enabled           bool   `json:"enabled"`            // 关闭后全部接口免鉴权（仅限本地开发）
	JWTSecret         string `json:"jwt_secret"`         // HS256 密钥
	Issuer            string `json:"issuer"`             // iss 校验（可选）
	Audience          string `json:"audience"`           // aud 校验（可选）
	TokenTTLMinutes   int    `json:"token_ttl_minutes"`  // access token 有效期
	BootstrapPassword string `json:"bootstrap_password"` // 首次启动的管理员初始密码
}

// VINConfig 外部 VIN 解码服务配置
type VINConfig struct {
	BaseURL             string `json:"base_url"`
	TimeoutSeconds      int    `json:"timeout_seconds"`
	BreakerMaxFailures  int    `json:"breaker_max_failures"`
	BreakerResetSeconds int    `json:"breaker_reset_seconds"`
}

// RateLimitConfig 限流配置（令牌桶）
type RateLimitConfig struct {
	Enabled    bool  `json:"enabled"`
	Capacity   int64 `json:"capacity"`    // 桶容量
	RefillRate int64 `json:"refill_rate"` // 每秒补充的令牌数
}

// ConsulConfig Consul配置
type ConsulConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// JaegerConfig Jaeger配置
type JaegerConfig struct {
	Endpoint string  `json:"endpoint"`
	Sampler  float64 `json:"sampler"` // 采样率 0.0-1.0
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string `json:"level"`   // debug, info, warn, error
	Format  string `json:"format"`  // json, text
	Output  string `json:"output"`  // stdout, file
	Path    string `json:"path"`    // 日志文件路径
	Backend string `json:"backend"` // logrus, zap
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// LoadConfig 加载配置；配置文件不存在时回退到默认配置。
func LoadConfig(configPath string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		globalConfig = &Config{}
		if _, err = os.Stat(configPath); os.IsNotExist(err) {
			logrus.Warnf("Config file not found: %s, using default config", configPath)
			globalConfig = defaultConfig()
			err = nil
			return
		}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file: %w", readErr)
			return
		}

		if unmarshalErr := json.Unmarshal(data, globalConfig); unmarshalErr != nil {
			err = fmt.Errorf("failed to parse config file: %w", unmarshalErr)
			return
		}
	})

	if err != nil {
		return nil, err
	}

	return globalConfig, nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if globalConfig == nil {
		return defaultConfig()
	}
	return globalConfig
}

// defaultConfig 默认配置（开发环境）
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "dealership-service",
			Host:     "0.0.0.0",
			HTTPPort: 8080,
		},
		Store: StoreConfig{
			DataDir:    "data",
			Durability: "direct",
		},
		Auth: AuthConfig{
			Enabled:           true,
			JWTSecret:         "dev-only-secret",
			Issuer:            "dealership-service",
			Audience:          "dealership-api",
			TokenTTLMinutes:   8 * 60,
			BootstrapPassword: "ManagerPass123!",
		},
		VIN: VINConfig{
			BaseURL:             "https://vpic.nhtsa.dot.gov/api",
			TimeoutSeconds:      10,
			BreakerMaxFailures:  5,
			BreakerResetSeconds: 30,
		},
		RateLimit: RateLimitConfig{
			Enabled:    true,
			Capacity:   100,
			RefillRate: 50,
		},
		Consul: ConsulConfig{
			Host: "localhost",
			Port: 8500,
		},
		Jaeger: JaegerConfig{
			Endpoint: "localhost:6831",
			Sampler:  1.0,
		},
		Log: LogConfig{
			Level:   "debug",
			Format:  "text",
			Output:  "stdout",
			Path:    "logs/app.log",
			Backend: "logrus",
		},
	}
}
