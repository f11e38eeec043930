package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	ML       MLConfig
	Forecast ForecastConfig
	AI       AIConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig 数据集注册表数据库配置
type DatabaseConfig struct {
	Path string
}

// StorageConfig 上传文件存储配置
type StorageConfig struct {
	UploadDir         string
	MaxFileSize       int64
	AllowedExtensions []string
}

// MLConfig 模型训练配置
type MLConfig struct {
	Seed     int64
	TestSize float64
}

// ForecastConfig 时间序列预测配置
// Engine 为 off 时季节性预测能力不可用，路由自动退化为指数平滑
type ForecastConfig struct {
	Engine string
}

// AIConfig OpenRouter 配置
type AIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   int
	Referer   string
	AppTitle  string
	MaxTokens int
}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("DATAPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "datapulse")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 120)

	// Database
	v.SetDefault("database.path", "analytics.db")

	// Storage
	v.SetDefault("storage.uploadDir", "uploads")
	v.SetDefault("storage.maxFileSize", 50*1024*1024)
	v.SetDefault("storage.allowedExtensions", []string{"csv", "xlsx"})

	// ML
	v.SetDefault("ml.seed", 42)
	v.SetDefault("ml.testSize", 0.2)

	// Forecast
	v.SetDefault("forecast.engine", "holtwinters")

	// AI
	v.SetDefault("ai.baseUrl", "https://openrouter.ai/api/v1")
	v.SetDefault("ai.model", "meta-llama/llama-3.1-70b-instruct")
	v.SetDefault("ai.timeout", 30)
	v.SetDefault("ai.referer", "https://analytics-dashboard.app")
	v.SetDefault("ai.appTitle", "AI Data Analytics Dashboard")
	v.SetDefault("ai.maxTokens", 1000)
}
