// Package memory implements domain.Store in process memory. It backs
// TASKTRACK_STORE=memory runs and the service tests.
package memory

import (
	"context"
	"sync"

	"github.com/gosuda/tasktrack/internal/domain"
)

// dataset is one consistent snapshot of every table.
type dataset struct {
	users        map[int64]*domain.User
	tasks        map[int64]*domain.Task
	participants map[int64]*domain.Participant
	comments     map[int64]*domain.Comment
	audit        []*domain.AuditEntry

	nextUserID        int64
	nextTaskID        int64
	nextParticipantID int64
	nextCommentID     int64
}

func newDataset() *dataset {
	return &dataset{
		users:        make(map[int64]*domain.User),
		tasks:        make(map[int64]*domain.Task),
		participants: make(map[int64]*domain.Participant),
		comments:     make(map[int64]*domain.Comment),
	}
}

// clone deep-copies the dataset so a transaction can be discarded on error.
func (d *dataset) clone() *dataset {
	c := &dataset{
		users:             make(map[int64]*domain.User, len(d.users)),
		tasks:             make(map[int64]*domain.Task, len(d.tasks)),
		participants:      make(map[int64]*domain.Participant, len(d.participants)),
		comments:          make(map[int64]*domain.Comment, len(d.comments)),
		audit:             make([]*domain.AuditEntry, len(d.audit)),
		nextUserID:        d.nextUserID,
		nextTaskID:        d.nextTaskID,
		nextParticipantID: d.nextParticipantID,
		nextCommentID:     d.nextCommentID,
	}
	for id, u := range d.users {
		c.users[id] = copyUser(u)
	}
	for id, t := range d.tasks {
		c.tasks[id] = copyTask(t)
	}
	for id, p := range d.participants {
		c.participants[id] = copyParticipant(p)
	}
	for id, cm := range d.comments {
		c.comments[id] = copyComment(cm)
	}
	copy(c.audit, d.audit)
	return c
}

// Store is a mutex-guarded in-memory database. Transactions run one at a
// time against a private copy that replaces the live data on commit.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

func New() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) Users() domain.UserRepository { return &userRepo{v: &view{store: s}} }
func (s *Store) Tasks() domain.TaskRepository { return &taskRepo{v: &view{store: s}} }
func (s *Store) Participants() domain.ParticipantRepository {
	return &participantRepo{v: &view{store: s}}
}
func (s *Store) Comments() domain.CommentRepository { return &commentRepo{v: &view{store: s}} }
func (s *Store) Audit() domain.AuditRepository      { return &auditRepo{v: &view{store: s}} }

// WithTx runs fn with exclusive access to a copy of the data. The copy is
// committed only when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx domain.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.data.clone()
	if err := fn(&txRepos{v: &view{store: s, tx: work}}); err != nil {
		return err
	}

	s.data = work
	return nil
}

// view resolves which dataset a repository call operates on.
type view struct {
	store *Store
	tx    *dataset
}

func (v *view) read(fn func(d *dataset) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.data)
}

type txRepos struct {
	v *view
}

func (r *txRepos) Users() domain.UserRepository               { return &userRepo{v: r.v} }
func (r *txRepos) Tasks() domain.TaskRepository               { return &taskRepo{v: r.v} }
func (r *txRepos) Participants() domain.ParticipantRepository { return &participantRepo{v: r.v} }
func (r *txRepos) Comments() domain.CommentRepository         { return &commentRepo{v: r.v} }
func (r *txRepos) Audit() domain.AuditRepository              { return &auditRepo{v: r.v} }

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	c.Participants = nil
	c.Comments = nil
	return &c
}

func copyParticipant(p *domain.Participant) *domain.Participant {
	c := *p
	c.User = nil
	return &c
}

func copyComment(cm *domain.Comment) *domain.Comment {
	c := *cm
	c.Author = nil
	return &c
}
