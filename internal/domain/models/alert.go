package models

import "encoding/json"

// Alert levels shared by rules and records.
const (
	AlertLevelLow      = "low"
	AlertLevelMedium   = "medium"
	AlertLevelHigh     = "high"
	AlertLevelCritical = "critical"
)

// AlertRule follows the rule_name / alert_level schema.
type AlertRule struct {
	ID                   int64           `json:"id"`
	RuleName             string          `json:"rule_name"`
	TSCode               string          `json:"ts_code"`
	RuleType             string          `json:"rule_type"`
	RuleTypeName         string          `json:"rule_type_name,omitempty"`
	ConditionType        string          `json:"condition_type"`
	ThresholdValue       float64         `json:"threshold_value"`
	ComparisonOperator   string          `json:"comparison_operator"`
	OperatorName         string          `json:"operator_name,omitempty"`
	AlertLevel           string          `json:"alert_level"`
	AlertLevelName       string          `json:"alert_level_name,omitempty"`
	AlertMessageTemplate string          `json:"alert_message_template,omitempty"`
	IsEnabled            bool            `json:"is_enabled"`
	IsActive             bool            `json:"is_active"`
	TriggerCount         int             `json:"trigger_count"`
	LastTriggeredAt      Timestamp       `json:"last_triggered_at,omitempty"`
	CreatedAt            Timestamp       `json:"created_at,omitempty"`
	UpdatedAt            Timestamp       `json:"updated_at,omitempty"`
	ExtraConfig          json.RawMessage `json:"extra_config,omitempty"`
}

// AlertRuleRequest is the create/update body for /rules.
type AlertRuleRequest struct {
	RuleName             string          `json:"rule_name" validate:"required,max=100"`
	TSCode               string          `json:"ts_code" validate:"required,tscode"`
	RuleType             string          `json:"rule_type" validate:"required,oneof=price_threshold price_change_pct volume_ratio turnover_rate market_value technical_indicator money_flow"`
	ConditionType        string          `json:"condition_type" default:"value" validate:"required"`
	ThresholdValue       float64         `json:"threshold_value"`
	ComparisonOperator   string          `json:"comparison_operator" default:"gt" validate:"oneof=gt gte lt lte eq ne"`
	AlertLevel           string          `json:"alert_level" default:"medium" validate:"oneof=low medium high critical"`
	AlertMessageTemplate string          `json:"alert_message_template,omitempty"`
	IsEnabled            *bool           `json:"is_enabled,omitempty"`
	ExtraConfig          json.RawMessage `json:"extra_config,omitempty"`
}

// AlertRecord is a triggered risk alert.
type AlertRecord struct {
	ID              int64           `json:"id"`
	TSCode          string          `json:"ts_code"`
	AlertType       string          `json:"alert_type"`
	AlertTypeName   string          `json:"alert_type_name,omitempty"`
	AlertLevel      string          `json:"alert_level"`
	AlertLevelName  string          `json:"alert_level_name,omitempty"`
	AlertMessage    string          `json:"alert_message"`
	AlertStatus     string          `json:"alert_status"`
	RuleID          *int64          `json:"rule_id,omitempty"`
	TriggerSource   string          `json:"trigger_source,omitempty"`
	RiskValue       *float64        `json:"risk_value,omitempty"`
	ThresholdValue  *float64        `json:"threshold_value,omitempty"`
	CurrentPrice    *float64        `json:"current_price,omitempty"`
	PositionSize    *float64        `json:"position_size,omitempty"`
	PortfolioWeight *float64        `json:"portfolio_weight,omitempty"`
	IsActive        bool            `json:"is_active"`
	IsResolved      bool            `json:"is_resolved"`
	IsIgnored       bool            `json:"is_ignored"`
	CreatedAt       Timestamp       `json:"created_at,omitempty"`
	UpdatedAt       Timestamp       `json:"updated_at,omitempty"`
	ResolvedAt      Timestamp       `json:"resolved_at,omitempty"`
	IgnoredAt       Timestamp       `json:"ignored_at,omitempty"`
	ResolutionNote  string          `json:"resolution_note,omitempty"`
	ExtraData       json.RawMessage `json:"extra_data,omitempty"`
}
