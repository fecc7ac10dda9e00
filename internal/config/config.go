package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// ServerConfig 定义了 HTTP 服务的监听配置。
type ServerConfig struct {
	Address string `yaml:"address"` // 监听地址 (例如: ":8080")
}

// GeminiConfig 包含了 Gemini 模型的配置。
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"` // Gemini API 密钥（可由 GEMINI_API_KEY 环境变量覆盖）
	Model  string `yaml:"model"`  // Gemini 模型名称 (例如: "gemini-1.5-flash")
}

// KintoneConfig 定义了 kintone 记录存储的连接配置。
// 报告应用与客户主数据应用是同一子域下的两个 app。
type KintoneConfig struct {
	Subdomain   string `yaml:"subdomain"`   // cybozu.com 子域名
	APIToken    string `yaml:"apiToken"`    // API 令牌（可由 KINTONE_API_TOKEN 环境变量覆盖）
	ReportAppID string `yaml:"reportAppId"` // 营业报告应用 ID
	ClientAppID string `yaml:"clientAppId"` // 客户主数据应用 ID
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled"`   // 是否启用音频归档
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 归档存储桶名称
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// StorageConfig 定义了本地保存与可选对象存储归档的配置。
type StorageConfig struct {
	SaveDir string      `yaml:"saveDir"` // 音频/文本副本的本地保存目录
	MinIO   MinIOConfig `yaml:"minio"`   // 可选的 MinIO 归档
}

// DiscoveryConfig 定义了 Etcd 服务注册的配置。
type DiscoveryConfig struct {
	Enabled   bool     `yaml:"enabled"`   // 是否注册到 etcd
	Endpoints []string `yaml:"endpoints"` // Etcd 节点地址列表
}

// StaffMember 是担当者选项表中的一行：表示名与 kintone 用户代码的静态对照。
type StaffMember struct {
	Name string `yaml:"name"` // 表示名 (例如: "山田太郎")
	Code string `yaml:"code"` // kintone 用户代码 (例如: "yamada")
}

// AppConfig 是整个 YAML 文件的根结构。进程启动时构造一次，之后只读，
// 以引用方式传入各组件，不存在任何环境全局变量。
type AppConfig struct {
	App                AppInfo         `yaml:"app"`                // 应用程序信息
	Logger             LoggerConfig    `yaml:"logger"`             // 日志记录器配置
	Server             ServerConfig    `yaml:"server"`             // HTTP 服务配置
	Gemini             GeminiConfig    `yaml:"gemini"`             // Gemini 配置
	Kintone            KintoneConfig   `yaml:"kintone"`            // kintone 配置
	Storage            StorageConfig   `yaml:"storage"`            // 本地保存/归档配置
	Discovery          DiscoveryConfig `yaml:"discovery"`          // 服务注册配置
	Schema             string          `yaml:"schema"`             // 抽取 Schema 名称 ("standard" 或 "detailed")
	Staff              []StaffMember   `yaml:"staff"`              // 担当者固定选项表
	ActivityCategories []string        `yaml:"activityCategories"` // 活動区分固定选项表
}

// defaultActivityCategories 是活動区分的内置选项，配置未给出时使用。
var defaultActivityCategories = []string{"訪問", "電話", "Web会議", "メール", "その他"}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件，随后应用环境变量覆盖。
// 密钥类字段优先取环境变量（GEMINI_API_KEY / KINTONE_API_TOKEN），
// 以免把凭证写进配置文件。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("KINTONE_API_TOKEN"); v != "" {
		cfg.Kintone.APIToken = v
	}
	if v := os.Getenv("KINTONE_SUBDOMAIN"); v != "" {
		cfg.Kintone.Subdomain = v
	}

	if cfg.Schema == "" {
		cfg.Schema = SchemaStandard
	}
	if cfg.Storage.SaveDir == "" {
		cfg.Storage.SaveDir = "./saved_audio"
	}
	if len(cfg.ActivityCategories) == 0 {
		cfg.ActivityCategories = defaultActivityCategories
	}
	return &cfg, nil
}

// StaffCode 在担当者对照表中解析表示名对应的用户代码。
// 未命中时返回 false，提交层据此放弃填充用户字段（绝不伪造身份）。
func (c *AppConfig) StaffCode(name string) (string, bool) {
	for _, s := range c.Staff {
		if s.Name == name {
			return s.Code, true
		}
	}
	return "", false
}

// StaffNames 返回担当者固定选项列表（保持配置中的顺序）。
func (c *AppConfig) StaffNames() []string {
	names := make([]string, 0, len(c.Staff))
	for _, s := range c.Staff {
		names = append(names, s.Name)
	}
	return names
}
