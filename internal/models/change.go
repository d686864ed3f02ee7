package models

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Table names a backend table that emits change notifications.
type Table string

const (
	TableMembers       Table = "group_members"
	TableExpenses      Table = "expenses"
	TableReactions     Table = "expense_reactions"
	TableMessages      Table = "group_messages"
	TableGoals         Table = "group_goals"
	TableContributions Table = "goal_contributions"
)

// GroupScoped reports whether events for t carry a group ID and are filtered
// by it. Reaction and contribution rows only reference their parent row, so
// their events reach every subscriber.
func (t Table) GroupScoped() bool {
	return t != TableReactions && t != TableContributions
}

// EventType is the kind of row change.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"

	// EventSubscribed is sent once when a subscription is registered. It
	// carries no table or record.
	EventSubscribed EventType = "SUBSCRIBED"
)

// ChangeEvent is a notification that a row of Table changed.
type ChangeEvent struct {
	Table   Table
	Type    EventType
	GroupID string

	// Record is the changed row (the old row for deletes).
	Record *structpb.Struct

	// CommitTime is when the change was committed, in Unix milliseconds.
	CommitTime int64
}

// NewRecord converts row fields into a Record. Values must be JSON-like
// (strings, numbers, bools, nil, nested maps and slices).
func NewRecord(fields map[string]any) (*structpb.Struct, error) {
	rec, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}
	return rec, nil
}

type changeEventJSON struct {
	Table      Table           `json:"table"`
	Type       EventType       `json:"type"`
	GroupID    string          `json:"group_id,omitempty"`
	Record     json.RawMessage `json:"record,omitempty"`
	CommitTime int64           `json:"commit_time"`
}

// MarshalJSON encodes Record with protojson so it appears as a plain object.
func (e ChangeEvent) MarshalJSON() ([]byte, error) {
	out := changeEventJSON{
		Table:      e.Table,
		Type:       e.Type,
		GroupID:    e.GroupID,
		CommitTime: e.CommitTime,
	}
	if e.Record != nil {
		b, err := protojson.Marshal(e.Record)
		if err != nil {
			return nil, fmt.Errorf("marshal record: %w", err)
		}
		out.Record = b
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (e *ChangeEvent) UnmarshalJSON(data []byte) error {
	var in changeEventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = ChangeEvent{
		Table:      in.Table,
		Type:       in.Type,
		GroupID:    in.GroupID,
		CommitTime: in.CommitTime,
	}
	if len(in.Record) > 0 && string(in.Record) != "null" {
		rec := &structpb.Struct{}
		if err := protojson.Unmarshal(in.Record, rec); err != nil {
			return fmt.Errorf("unmarshal record: %w", err)
		}
		e.Record = rec
	}
	return nil
}
