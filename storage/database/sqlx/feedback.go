package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core/feedback"
	"github.com/trezcool/ripoti/core/student"
)

const feedbackColumns = "id, student_id, content, generated_by, created_at"

type feedbackRepository struct {
	db *sqlx.DB
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *sqlx.DB) *feedbackRepository {
	return &feedbackRepository{db: db}
}

func (repo feedbackRepository) CreateFeedback(ctx context.Context, fb feedback.Feedback) (feedback.Feedback, error) {
	if !isUUID(fb.StudentID) {
		return feedback.Feedback{}, student.ErrNotFound
	}
	fb.ID = uuid.New().String()
	fb.CreatedAt = fb.CreatedAt.UTC()
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO feedback (`+feedbackColumns+`)
		VALUES (:id, :student_id, :content, :generated_by, :created_at)`, fb)
	if err != nil {
		return feedback.Feedback{}, mapConstraintErr(err, student.ErrNotFound, "inserting feedback")
	}
	return fb, nil
}

func (repo feedbackRepository) QueryFeedback(ctx context.Context, studentID string) ([]feedback.Feedback, error) {
	history := make([]feedback.Feedback, 0)
	if !isUUID(studentID) {
		return history, nil
	}
	// seq orders rows written within the same instant
	err := repo.db.SelectContext(ctx, &history,
		"SELECT "+feedbackColumns+" FROM feedback WHERE student_id = $1 ORDER BY created_at DESC, seq DESC", studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying feedback")
	}
	return history, nil
}
