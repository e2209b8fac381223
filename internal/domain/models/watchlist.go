package models

type WatchlistItem struct {
	ID       int64     `json:"id"`
	TSCode   string    `json:"ts_code"`
	Symbol   string    `json:"symbol,omitempty"`
	Name     string    `json:"name"`
	Note     string    `json:"note,omitempty"`
	AddedAt  Timestamp `json:"added_at,omitempty"`
	LastSync Timestamp `json:"last_sync,omitempty"`
}

type WatchlistAddRequest struct {
	TSCode string `json:"ts_code" validate:"required,tscode"`
	Note   string `json:"note,omitempty" validate:"max=500"`
}

type WatchlistUpdateRequest struct {
	Note string `json:"note" validate:"max=500"`
}
