// Package events carries user change notifications published by the system
// that owns user writes. This service consumes them to keep its cache fresh.
package events

import (
	"encoding/json"
	"fmt"
)

const DefaultQueue = "user_events"

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

type UserEvent struct {
	UserID int64  `json:"user_id"`
	Action string `json:"action"`
}

func (e UserEvent) Validate() error {
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown user event action %q", e.Action)
	}
	if e.UserID <= 0 {
		return fmt.Errorf("invalid user id %d", e.UserID)
	}
	return nil
}

// Decode parses and validates a message body.
func Decode(body []byte) (UserEvent, error) {
	var ev UserEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return UserEvent{}, fmt.Errorf("invalid user event payload: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return UserEvent{}, err
	}
	return ev, nil
}
