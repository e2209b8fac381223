package models

import "encoding/json"

// Topics the push channel understands.
const (
	TopicMarketData = "market_data"
	TopicIndicators = "indicators"
	TopicSignals    = "signals"
	TopicMonitor    = "monitor"
	TopicRiskAlerts = "risk_alerts"
	TopicPortfolio  = "portfolio"
	TopicNews       = "news"
)

// ServerHello is the payload of the server's own "connected" event.
type ServerHello struct {
	ClientID   string    `json:"client_id"`
	ServerTime Timestamp `json:"server_time"`
	Message    string    `json:"message"`
}

// MarketDataUpdate is pushed to rooms market_data_<symbol>.
type MarketDataUpdate struct {
	Symbol    string          `json:"symbol"`
	Data      json.RawMessage `json:"data"`
	Timestamp Timestamp       `json:"timestamp"`
}

// RiskAlertEvent is pushed to the risk_alerts room.
type RiskAlertEvent struct {
	Alert     AlertRecord `json:"alert"`
	Timestamp Timestamp   `json:"timestamp"`
}

// SubscriptionAck answers subscribe and unsubscribe.
type SubscriptionAck struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	Message string `json:"message"`
}

type Pong struct {
	Timestamp Timestamp `json:"timestamp"`
	Message   string    `json:"message"`
}

// ServerError is the payload of the server's "error" event.
type ServerError struct {
	Message string `json:"message"`
}

// SubscribeMessage is the outbound body of subscribe / unsubscribe.
type SubscribeMessage struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// Lifecycle payloads emitted locally by the realtime client.

type ConnectedEvent struct {
	ClientID string `json:"client_id"`
}

type ConnectErrorEvent struct {
	Error string `json:"error"`
}

type DisconnectEvent struct {
	Reason string `json:"reason"`
}
