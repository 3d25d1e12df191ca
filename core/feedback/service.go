package feedback

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/student"
)

var (
	// errors
	ErrGenerationFailed = errors.New("feedback generation failed")
	ErrNotSaved         = errors.New("feedback may have been generated but could not be saved, please try again")

	defaultPersistTimeout = 10 * time.Second
	nowFunc               = time.Now // mockable
)

type (
	// Generator submits a prompt to a generative-text model and returns its completion.
	Generator interface {
		Generate(ctx context.Context, prompt string) (string, error)
		// Name identifies the generating service; it is stored as the Feedback provenance.
		Name() string
	}

	// StudentGetter fetches a student with all its records.
	StudentGetter interface {
		GetStudent(ctx context.Context, id string) (student.Student, error)
	}

	Repository interface {
		// CreateFeedback appends fb. It returns student.ErrNotFound when the student does not exist.
		CreateFeedback(ctx context.Context, fb Feedback) (Feedback, error)
		// QueryFeedback returns the student's feedback, most recent first.
		QueryFeedback(ctx context.Context, studentID string) ([]Feedback, error)
	}

	Service struct {
		students       StudentGetter
		repo           Repository
		generator      Generator
		logger         core.Logger
		persistTimeout time.Duration
	}
)

func NewService(students StudentGetter, repo Repository, generator Generator, logger core.Logger, conf *core.Config) *Service {
	svc := &Service{
		students:       students,
		repo:           repo,
		generator:      generator,
		logger:         logger,
		persistTimeout: defaultPersistTimeout,
	}
	if conf != nil && conf.Feedback.PersistTimeout > 0 {
		svc.persistTimeout = conf.Feedback.PersistTimeout
	}
	return svc
}

// Generate runs the feedback pipeline for a student:
// fetch -> summarize -> build prompt -> generate -> persist.
// Concurrent calls for the same student each append their own Feedback.
func (svc *Service) Generate(ctx context.Context, studentID string, t Type) (Feedback, error) {
	if !t.IsValid() {
		return Feedback{}, invalidTypeError()
	}

	std, err := svc.students.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Feedback{}, student.ErrNotFound
		}
		return Feedback{}, errors.Wrap(err, "fetching student")
	}

	prompt, err := BuildPrompt(student.Summarize(std), t)
	if err != nil {
		return Feedback{}, err
	}

	text, err := svc.generator.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		svc.logger.Error("generating feedback", err, std, map[string]interface{}{"type": string(t)})
		return Feedback{}, ErrGenerationFailed
	}

	// the write completes even if the caller goes away
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), svc.persistTimeout)
	defer cancel()

	fb, err := svc.repo.CreateFeedback(pctx, Feedback{
		StudentID:   std.ID,
		Content:     text,
		GeneratedBy: svc.generator.Name(),
		CreatedAt:   nowFunc().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Feedback{}, student.ErrNotFound
		}
		svc.logger.Error("saving feedback", err, std, map[string]interface{}{"type": string(t)})
		return Feedback{}, ErrNotSaved
	}
	return fb, nil
}

// History returns the student's feedback, most recent first.
func (svc *Service) History(ctx context.Context, studentID string) ([]Feedback, error) {
	if _, err := svc.students.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}
	history, err := svc.repo.QueryFeedback(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying feedback")
	}
	return history, nil
}
