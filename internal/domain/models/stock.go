package models

// Stock is one row of the listed-stock catalogue.
type Stock struct {
	TSCode   string `json:"ts_code"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Area     string `json:"area,omitempty"`
	Industry string `json:"industry,omitempty"`
	Market   string `json:"market,omitempty"`
	ListDate string `json:"list_date,omitempty"`
}

// DailyBar is a daily OHLCV row. TradeDate is YYYYMMDD.
type DailyBar struct {
	TSCode    string  `json:"ts_code"`
	TradeDate string  `json:"trade_date"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	PreClose  float64 `json:"pre_close"`
	Change    float64 `json:"change"`
	PctChg    float64 `json:"pct_chg"`
	Vol       float64 `json:"vol"`
	Amount    float64 `json:"amount"`
}

// Quote is the latest bar plus identity and change against the previous close.
type Quote struct {
	DailyBar
	Symbol             string    `json:"symbol"`
	Name               string    `json:"name"`
	PriceChange        float64   `json:"price_change"`
	PriceChangePercent float64   `json:"price_change_percent"`
	Timestamp          Timestamp `json:"timestamp"`
}

type StockQuery struct {
	Exchange   string `query:"exchange" validate:"omitempty,oneof=SSE SZSE"`
	ListStatus string `query:"list_status" validate:"omitempty,oneof=L D P"`
}

type DailyQuery struct {
	StartDate string `json:"start_date,omitempty" validate:"omitempty,len=8,numeric"`
	EndDate   string `json:"end_date,omitempty" validate:"omitempty,len=8,numeric"`
	Limit     int    `json:"limit,omitempty" default:"60" validate:"gte=1,lte=5000"`
}

type RealtimeQuotesRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,dive,required"`
}

type SyncStocksRequest struct {
	ForceUpdate bool `json:"force_update"`
}

// SyncRangeRequest bounds a daily-data sync. Empty dates let the backend pick.
type SyncRangeRequest struct {
	StartDate string `json:"start_date,omitempty" validate:"omitempty,len=8,numeric"`
	EndDate   string `json:"end_date,omitempty" validate:"omitempty,len=8,numeric"`
}
