package models

// Requests for the local dashboard HTTP endpoints.

type SubscriptionRequest struct {
	Topic  string         `json:"topic" validate:"required,oneof=market_data indicators signals monitor risk_alerts portfolio news"`
	Params map[string]any `json:"params"`
}

type LimitQuery struct {
	Limit int `query:"limit" default:"50" validate:"gte=1,lte=500"`
}

type SymbolParam struct {
	Symbol string `param:"symbol" validate:"required,tscode"`
}

type RuleIDParam struct {
	ID int64 `param:"id" validate:"required,gte=1"`
}

// ConnectionStatus reports the realtime client's state.
type ConnectionStatus struct {
	State     string `json:"state"`
	Connected bool   `json:"connected"`
	SocketID  string `json:"socket_id,omitempty"`
}

// SubscriptionResult tells whether a subscription request reached the server.
type SubscriptionResult struct {
	Topic string `json:"topic"`
	Sent  bool   `json:"sent"`
}
