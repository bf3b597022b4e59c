package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address  string `yaml:"address"`  // MongoDB 服务器地址
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`    // Kafka Broker 地址列表
	AlertTopic string   `yaml:"alertTopic"` // 股票提醒事件发布的主题
}

// CollectionsConfig 定义了仓库中各集合的名称。
type CollectionsConfig struct {
	Articles    string `yaml:"articles"`    // 上游抓取服务写入的文章集合
	Tickers     string `yaml:"tickers"`     // ticker 参考数据集合
	Predictions string `yaml:"predictions"` // 预测记录主集合
	Staging     string `yaml:"staging"`     // 阶段合并使用的暂存集合
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	MongoDB     MongoConfig       `yaml:"mongodb"`     // MongoDB 数据库配置
	Redis       RedisConfig       `yaml:"redis"`       // Redis 数据库配置
	Kafka       KafkaConfig       `yaml:"kafka"`       // Kafka 消息队列配置
	Collections CollectionsConfig `yaml:"collections"` // 集合名称配置
}

// EmbeddingModelConfig 描述集成中的一个 embedding 模型。
// 每个模型有自己的字符截断预算，不共享全局截断长度。
type EmbeddingModelConfig struct {
	Name     string `yaml:"name"`     // 模型标签，同时用作向量存储的键 (例如: "model1")
	Provider string `yaml:"provider"` // 提供商 (例如: "gemini", "openai", "huggingface", "ollama")
	Model    string `yaml:"model"`    // 要使用的模型名称
	APIKey   string `yaml:"apiKey"`   // API 密钥
	BaseURL  string `yaml:"baseURL"`  // 服务基础 URL (可选)
	MaxChars int    `yaml:"maxChars"` // 输入文本的最大字符预算
}

// EmbeddingConfig 包含集成 embedding 的全部模型配置。
// 列表中的第一个模型是第一阶段候选筛选使用的主模型。
type EmbeddingConfig struct {
	Models   []EmbeddingModelConfig `yaml:"models"`   // 集成中的模型列表
	CacheTTL string                 `yaml:"cacheTTL"` // 主模型 ticker 向量的 Redis 缓存有效期
}

// OpenAIConfig 包含了 OpenAI 模型的配置。
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"` // OpenAI API 密钥
	Model  string `yaml:"model"`  // 模型名称
}

// GeminiConfig 包含了 Gemini 模型的配置。
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"` // Gemini API 密钥
	Model  string `yaml:"model"`  // Gemini 模型名称
}

// LLMConfig 包含了不同推理服务提供商的配置。
type LLMConfig struct {
	Provider string       `yaml:"provider"` // LLM提供商 (例如: "gemini", "openai")
	OpenAI   OpenAIConfig `yaml:"openai"`   // OpenAI 模型配置
	Gemini   GeminiConfig `yaml:"gemini"`   // Gemini 模型配置
}

// MarketDataConfig 定义了市场数据提供方的配置。
type MarketDataConfig struct {
	BaseURL       string  `yaml:"baseURL"`       // 行情 API 的基础 URL
	RatePerSecond float64 `yaml:"ratePerSecond"` // 请求限速 (每秒令牌数)
	Burst         int     `yaml:"burst"`         // 限速桶容量
}

// RetryConfig 定义了外部调用的通用重试策略。
type RetryConfig struct {
	MaxAttempts int     `yaml:"maxAttempts"` // 总尝试次数（含首次调用）
	MinDelay    string  `yaml:"minDelay"`    // 退避下限 (例如: "4s")
	MaxDelay    string  `yaml:"maxDelay"`    // 退避上限 (例如: "60s")
	Multiplier  float64 `yaml:"multiplier"`  // 退避增长倍率
	Jitter      float64 `yaml:"jitter"`      // 抖动比例 (例如: 0.25)
}

// PipelineConfig 定义了主摄取流水线的参数。
type PipelineConfig struct {
	ServerAddress    string `yaml:"serverAddress"`    // 只读 API 的监听地址
	CycleInterval    string `yaml:"cycleInterval"`    // 两次摄取循环之间的间隔 (例如: "30m")
	CycleBackoffBase string `yaml:"cycleBackoffBase"` // 整循环失败后的初始退避
	CycleBackoffMax  string `yaml:"cycleBackoffMax"`  // 整循环退避的上限
	FetchWindowHours int    `yaml:"fetchWindowHours"` // 抓取最近多少小时内的文章
	Stage1TopK       int    `yaml:"stage1TopK"`       // 第一阶段候选数 (默认 100)
	Stage2TopK       int    `yaml:"stage2TopK"`       // 每个模型的最终候选数 (默认 3)
	ReasoningTimeout string `yaml:"reasoningTimeout"` // 单次推理调用的硬超时 (默认 "60s")
	PromptDir        string `yaml:"promptDir"`        // 提示词模板目录
	RecommendTopN    int    `yaml:"recommendTopN"`    // 推荐接口返回的 ticker 数
}

// BackfillConfig 定义了回填调度器的参数。
type BackfillConfig struct {
	Interval     string `yaml:"interval"`     // 两次回填循环之间的间隔
	MinAge       string `yaml:"minAge"`       // 记录可回填的最小年龄 (默认 "90m")
	BufferWindow string `yaml:"bufferWindow"` // 流式缓冲保护窗口 (默认 "3h")
	BatchLimit   int    `yaml:"batchLimit"`   // 每个循环处理的记录数上限
}

// EmailConfig 定义了邮件通知的配置。
type EmailConfig struct {
	Enabled    bool     `yaml:"enabled"`
	SMTPAddr   string   `yaml:"smtpAddr"`   // SMTP 服务器地址 (host:port)
	From       string   `yaml:"from"`       // 发件人地址
	Recipients []string `yaml:"recipients"` // 收件人列表
}

// SMSConfig 定义了短信通知的配置。
type SMSConfig struct {
	Enabled    bool     `yaml:"enabled"`
	BaseURL    string   `yaml:"baseURL"`    // 短信服务 REST API 的基础 URL
	AccountSID string   `yaml:"accountSID"` // 账户标识
	AuthToken  string   `yaml:"authToken"`  // 认证令牌
	From       string   `yaml:"from"`       // 发送号码
	Recipients []string `yaml:"recipients"` // 接收号码列表
}

// NotificationConfig 定义了通知服务的参数。
type NotificationConfig struct {
	Interval string      `yaml:"interval"` // 两次检查之间的间隔 (默认 "5m")
	Lookback string      `yaml:"lookback"` // 检查最近多长时间内的记录 (默认 "7h")
	Email    EmailConfig `yaml:"email"`    // 邮件通知配置
	SMS      SMSConfig   `yaml:"sms"`      // 短信通知配置
}

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

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App          AppInfo            `yaml:"app"`          // 应用程序信息
	Logger       LoggerConfig       `yaml:"logger"`       // 日志记录器配置
	Databases    DatabaseConfigs    `yaml:"databases"`    // 数据库配置
	Embedding    EmbeddingConfig    `yaml:"embedding"`    // 集成 embedding 配置
	LLM          LLMConfig          `yaml:"llm"`          // 推理服务配置
	MarketData   MarketDataConfig   `yaml:"marketData"`   // 市场数据配置
	Retry        RetryConfig        `yaml:"retry"`        // 外部调用重试策略
	Pipeline     PipelineConfig     `yaml:"pipeline"`     // 摄取流水线配置
	Backfill     BackfillConfig     `yaml:"backfill"`     // 回填调度配置
	Notification NotificationConfig `yaml:"notification"` // 通知服务配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig // 声明一个AppConfig变量用于存储解析后的配置。
	// 将 YAML 内容解析到 cfg 结构体中。
	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	return &cfg, nil // 返回解析后的配置和nil错误。
}

// Duration 将配置中的时长字符串解析为 time.Duration。
// 空字符串或解析失败时返回给定的默认值。
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
