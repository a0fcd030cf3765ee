package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/tasktrack/internal/domain"
	"github.com/gosuda/tasktrack/internal/policy"
)

func task() *domain.Task {
	return &domain.Task{
		ID: 1,
		Participants: []*domain.Participant{
			{TaskID: 1, UserID: 1, Role: domain.RoleCreator},
			{TaskID: 1, UserID: 4, Role: domain.RoleAssignee},
			{TaskID: 1, UserID: 2, Role: domain.RoleObserver},
		},
	}
}

func TestTaskPredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		userID     int64
		wantView   bool
		wantUpdate bool
		wantDelete bool
	}{
		{"creator", 1, true, true, true},
		{"assignee", 4, true, true, false},
		{"observer", 2, true, true, false},
		{"outsider", 9, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tk := task()
			assert.Equal(t, tt.wantView, policy.CanView(tt.userID, tk))
			assert.Equal(t, tt.wantUpdate, policy.CanUpdate(tt.userID, tk))
			assert.Equal(t, tt.wantDelete, policy.CanDelete(tt.userID, tk))
		})
	}
}

func TestTaskPredicates_NilTask(t *testing.T) {
	t.Parallel()

	assert.False(t, policy.CanView(1, nil))
	assert.False(t, policy.CanUpdate(1, nil))
	assert.False(t, policy.CanDelete(1, nil))
}

func TestCanDelete_NoCreatorLoaded(t *testing.T) {
	t.Parallel()

	tk := &domain.Task{ID: 1}
	assert.False(t, policy.CanDelete(0, tk), "zero user id must not match a missing creator")
}

func TestCanCreate(t *testing.T) {
	t.Parallel()

	for _, id := range []int64{0, 1, 42} {
		assert.True(t, policy.CanCreate(id), "user %d", id)
	}
}

func TestCanModifyComment(t *testing.T) {
	t.Parallel()

	c := &domain.Comment{ID: 5, TaskID: 1, UserID: 4}

	assert.True(t, policy.CanModifyComment(4, c))
	assert.False(t, policy.CanModifyComment(2, c), "membership does not grant comment ownership")
	assert.False(t, policy.CanModifyComment(4, nil))
}
