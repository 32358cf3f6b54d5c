package model

import "time"

type Kind string

const (
	KindTask    Kind = "task"
	KindProject Kind = "project"
	KindList    Kind = "list"
)

func ValidKinds() []Kind {
	return []Kind{KindTask, KindProject, KindList}
}

func (k Kind) IsValid() bool {
	for _, valid := range ValidKinds() {
		if k == valid {
			return true
		}
	}
	return false
}

// Item is the single entity behind tasks, subtasks, list items and project
// tasks. Children are always plain task rows; only top-level items
// (ParentID == nil) carry a user-meaningful Kind.
type Item struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parentId,omitempty"`
	Kind     Kind    `json:"kind"`

	Title    string `json:"title"`
	Notes    string `json:"notes,omitempty"`
	Priority bool   `json:"priority"`

	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// SortOrder is contiguous (0..n-1) within a sibling scope: same parent,
	// same completion partition.
	SortOrder int `json:"sortOrder"`

	// PrevChildStates is captured when a parent is completed directly (not by
	// cascade-from-child): one bool per child, in child sort order. It is
	// cleared when the child set changes or when it is consumed by a restore.
	PrevChildStates []bool `json:"prevChildStates,omitempty"`

	CategoryID *string `json:"categoryId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Commitment pledges an item for a day. Commitments are deleted together with
// the item (or any ancestor of the item).
type Commitment struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	Date      string    `json:"date"` // YYYY-MM-DD
	CreatedAt time.Time `json:"createdAt"`
}

type Event struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload"`
}
