package model

import "time"

// WatchItem is one watchlist entry keyed by its normalized code.
// Name is empty when the display name could not be resolved.
type WatchItem struct {
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	AddedAt time.Time `json:"added_at"`
}

// DisplayName returns the name, or the code when no name is known.
func (w WatchItem) DisplayName() string {
	if w.Name == "" {
		return w.Code
	}
	return w.Name
}
