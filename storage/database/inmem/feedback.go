package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/ripoti/core/feedback"
	"github.com/trezcool/ripoti/core/student"
)

type feedbackRepository struct {
	db *DB
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *DB) *feedbackRepository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) CreateFeedback(_ context.Context, fb feedback.Feedback) (feedback.Feedback, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[fb.StudentID]; !ok {
		return feedback.Feedback{}, student.ErrNotFound
	}
	fb.ID = uuid.New().String()
	repo.db.feedback[fb.ID] = row[feedback.Feedback]{seq: repo.db.next(), val: fb}
	return fb, nil
}

func (repo *feedbackRepository) QueryFeedback(_ context.Context, studentID string) ([]feedback.Feedback, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]row[feedback.Feedback], 0)
	for _, r := range repo.db.feedback {
		if r.val.StudentID == studentID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].val.CreatedAt.Equal(rows[j].val.CreatedAt) {
			return rows[i].val.CreatedAt.After(rows[j].val.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	history := make([]feedback.Feedback, 0, len(rows))
	for _, r := range rows {
		history = append(history, r.val)
	}
	return history, nil
}
