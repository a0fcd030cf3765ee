// Package policy derives task and comment permissions from participant
// membership and authorship. Every check is a pure predicate over a user id
// and an entity whose participant set has been loaded.
package policy

import "github.com/gosuda/tasktrack/internal/domain"

// CanView reports whether userID holds any role on the task.
func CanView(userID int64, t *domain.Task) bool {
	return t != nil && t.HasParticipant(userID)
}

// CanUpdate has the same rule as CanView: every participant may edit.
func CanUpdate(userID int64, t *domain.Task) bool {
	return CanView(userID, t)
}

// CanDelete reports whether userID is the task's creator.
func CanDelete(userID int64, t *domain.Task) bool {
	if t == nil {
		return false
	}
	creatorID, ok := t.CreatorID()
	return ok && creatorID == userID
}

// CanCreate reports whether userID may create tasks. Every user may; the
// creator row's foreign key rejects ids that do not name a user.
func CanCreate(int64) bool {
	return true
}

// CanModifyComment reports whether userID authored the comment.
func CanModifyComment(userID int64, c *domain.Comment) bool {
	return c != nil && c.UserID == userID
}
