package models

// LogEntry 定义了用于结构化日志的统一数据格式，
// 方便日志采集、传输与后续的解析、索引和分析。
type LogEntry struct {
	// ServiceName 是产生这条日志的服务或组件的名称。
	// 例如："prediction-service", "backfill-service"
	ServiceName string `json:"service_name"`

	// TraceID 用于将一次处理过程（例如一篇文章的完整流水线）串联起来。
	TraceID string `json:"trace_id,omitempty"`

	// Error 包含详细的错误信息，通常在日志级别为 Error 或更高时填充。
	Error *ErrorInfo `json:"error,omitempty"`

	// Payload 用于存放任何其他与业务逻辑相关的、需要记录的结构化数据。
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ErrorInfo 存储了关于错误的结构化信息。
type ErrorInfo struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"` // 错误的类型，例如 "transient", "permanent", "parse"
}
