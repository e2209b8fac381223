package models

import "encoding/json"

// DataSourceConfig describes a market-data provider (e.g. tushare) on the backend.
type DataSourceConfig struct {
	ID           int64           `json:"id"`
	SourceType   string          `json:"source_type"`
	SourceName   string          `json:"source_name"`
	ConfigData   json.RawMessage `json:"config_data,omitempty"`
	IsActive     bool            `json:"is_active"`
	IsDefault    bool            `json:"is_default"`
	Status       string          `json:"status,omitempty"`
	LastTestTime Timestamp       `json:"last_test_time,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    Timestamp       `json:"created_at,omitempty"`
	UpdatedAt    Timestamp       `json:"updated_at,omitempty"`
}

type DataSourceRequest struct {
	SourceType string         `json:"source_type" validate:"required"`
	SourceName string         `json:"source_name" validate:"required"`
	ConfigData map[string]any `json:"config_data,omitempty"`
	IsActive   *bool          `json:"is_active,omitempty"`
	IsDefault  *bool          `json:"is_default,omitempty"`
}

// AIConfig is an AI-provider configuration.
type AIConfig struct {
	ID           int64           `json:"id"`
	ProviderType string          `json:"provider_type"`
	ProviderName string          `json:"provider_name"`
	ConfigData   json.RawMessage `json:"config_data,omitempty"`
	IsActive     bool            `json:"is_active"`
	IsDefault    bool            `json:"is_default"`
	Status       string          `json:"status,omitempty"`
	LastTestTime Timestamp       `json:"last_test_time,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    Timestamp       `json:"created_at,omitempty"`
	UpdatedAt    Timestamp       `json:"updated_at,omitempty"`
}

type AIConfigRequest struct {
	ProviderType string         `json:"provider_type" validate:"required,oneof=tongyi openai zhipu ollama custom"`
	ProviderName string         `json:"provider_name" validate:"required"`
	ConfigData   map[string]any `json:"config_data,omitempty"`
	IsActive     *bool          `json:"is_active,omitempty"`
	IsDefault    *bool          `json:"is_default,omitempty"`
}

// AIRecommendation is the backend's AI stock analysis.
type AIRecommendation struct {
	TSCode         string    `json:"ts_code"`
	StockName      string    `json:"stock_name"`
	Recommendation string    `json:"recommendation"`
	Confidence     float64   `json:"confidence"`
	TargetPrice    float64   `json:"target_price"`
	RiskLevel      string    `json:"risk_level"`
	Reasons        []string  `json:"reasons"`
	AIProvider     string    `json:"ai_provider,omitempty"`
	AnalysisTime   Timestamp `json:"analysis_time,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

type RecommendationRequest struct {
	TSCode string `json:"ts_code" validate:"required,tscode"`
}

// WebhookConfig is an outbound notification channel configured on the backend.
type WebhookConfig struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Type            string            `json:"type"`
	TypeName        string            `json:"type_name,omitempty"`
	URL             string            `json:"url"`
	Description     string            `json:"description,omitempty"`
	Method          string            `json:"method"`
	Headers         map[string]string `json:"headers,omitempty"`
	Timeout         int               `json:"timeout"`
	RetryCount      int               `json:"retry_count"`
	MessageTemplate string            `json:"message_template,omitempty"`
	ContentType     string            `json:"content_type,omitempty"`
	IsEnabled       bool              `json:"is_enabled"`
	IsActive        bool              `json:"is_active"`
	SuccessCount    int               `json:"success_count"`
	FailureCount    int               `json:"failure_count"`
	LastSentAt      Timestamp         `json:"last_sent_at,omitempty"`
	LastStatus      string            `json:"last_status,omitempty"`
	CreatedAt       Timestamp         `json:"created_at,omitempty"`
	UpdatedAt       Timestamp         `json:"updated_at,omitempty"`
	ExtraConfig     json.RawMessage   `json:"extra_config,omitempty"`
}

type WebhookRequest struct {
	Name            string            `json:"name" validate:"required,max=100"`
	Type            string            `json:"type" default:"generic" validate:"oneof=feishu dingtalk wechat_work slack telegram email generic"`
	URL             string            `json:"url" validate:"required,url"`
	Description     string            `json:"description,omitempty"`
	Method          string            `json:"method" default:"POST" validate:"oneof=GET POST PUT"`
	Headers         map[string]string `json:"headers,omitempty"`
	Timeout         int               `json:"timeout" default:"30" validate:"gte=1,lte=300"`
	RetryCount      int               `json:"retry_count" default:"3" validate:"gte=0,lte=10"`
	MessageTemplate string            `json:"message_template,omitempty"`
	ContentType     string            `json:"content_type" default:"application/json"`
	IsEnabled       *bool             `json:"is_enabled,omitempty"`
}
