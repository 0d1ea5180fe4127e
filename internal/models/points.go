package models

import "time"

// Reasons recorded on points audit entries
const (
	PointsReasonTaskCompleted   = "task_completed"
	PointsReasonTaskUncompleted = "task_uncompleted"
	PointsReasonParentOverride  = "parent_override"
)

// PointsEntry is one row of the append-only points audit trail. The trail
// records deltas with timestamps; the current balance lives on the Child
// row and is never recomputed from these entries.
type PointsEntry struct {
	ID        int64
	ChildID   int64
	Delta     int
	Reason    string
	CreatedAt time.Time
}
