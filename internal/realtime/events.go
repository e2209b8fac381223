package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"StockWatch/internal/domain/models"
	"StockWatch/pkg/logger"
)

// Lifecycle events emitted by the client itself.
const (
	EventConnected       = "connected"
	EventConnectError    = "connect_error"
	EventDisconnected    = "disconnected"
	EventReconnectFailed = "reconnect_failed"
)

// Server events. The server's own "connected" greeting is delivered as
// EventServerConnected so it does not collide with the lifecycle event.
const (
	EventServerConnected = "server_connected"
	EventMarketData      = "market_data_update"
	EventRiskAlert       = "risk_alert"
	EventSubscribed      = "subscribed"
	EventUnsubscribed    = "unsubscribed"
	EventPong            = "pong"
	EventError           = "error"
)

// Outbound events.
const (
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventPing        = "ping"
)

var errEmptyPayload = errors.New("empty payload")

// Decode unmarshals a listener payload into T.
func Decode[T any](payload json.RawMessage) (*T, error) {
	if len(payload) == 0 {
		return nil, errEmptyPayload
	}
	v := new(T)
	if err := json.Unmarshal(payload, v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

// OnDecoded registers a listener that receives the payload decoded into T.
// Payloads that fail to decode are logged and not delivered.
func OnDecoded[T any](c *Client, event string, fn func(*T)) *Registration {
	return c.On(event, func(payload json.RawMessage) {
		v, err := Decode[T](payload)
		if err != nil {
			c.log.Warn("realtime payload rejected", logger.String("event", event), logger.Error(err))
			return
		}
		fn(v)
	})
}

func (c *Client) OnMarketData(fn func(*models.MarketDataUpdate)) *Registration {
	return OnDecoded(c, EventMarketData, fn)
}

func (c *Client) OnRiskAlert(fn func(*models.RiskAlertEvent)) *Registration {
	return OnDecoded(c, EventRiskAlert, fn)
}

func (c *Client) OnSubscribed(fn func(*models.SubscriptionAck)) *Registration {
	return OnDecoded(c, EventSubscribed, fn)
}

func (c *Client) OnDisconnected(fn func(*models.DisconnectEvent)) *Registration {
	return OnDecoded(c, EventDisconnected, fn)
}
