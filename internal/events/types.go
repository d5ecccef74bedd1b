// Package events provides event types and utilities for the Cardwall event system.
package events

// Event types for boards
const (
	BoardCreated = "board.created"
	BoardUpdated = "board.updated"
	BoardDeleted = "board.deleted"
)

// Event types for lists
const (
	ListCreated = "list.created"
	ListUpdated = "list.updated"
	ListDeleted = "list.deleted"
	ListMoved   = "list.moved"
)

// Event types for tasks
const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
	TaskMoved   = "task.moved"
)

// Event types for board membership
const (
	MemberAdded   = "member.added"
	MemberRemoved = "member.removed"
)

// Event types for the activity feed
const (
	ActivityRecorded = "activity.recorded"
)
