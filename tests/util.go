package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/feedback"
	"github.com/trezcool/ripoti/core/student"
)

// NewConfig returns a TEST configuration that needs no environment.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:  "Ripoti",
		Env:      "TEST",
		Build:    "test",
		TestMode: true,
		Server: core.ServerConfig{
			ShutdownTimeout: time.Second,
			DisableReqLogs:  true,
		},
		Database: core.DatabaseConfig{InMemory: true},
		Gemini: core.GeminiConfig{
			APIKey:  "test-key",
			Model:   "gemini-1.5-flash",
			Timeout: time.Second,
		},
		Feedback: core.FeedbackConfig{PersistTimeout: time.Second},
	}
}

// NewValidator returns a validator with every custom validator registered.
func NewValidator() *validator.Validate {
	validate, _ := NewValidatorAndTranslator()
	return validate
}

// NewValidatorAndTranslator returns a validator along with the translator its messages are registered on.
func NewValidatorAndTranslator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	feedback.InitValidators(validate, translator)
	return validate, translator
}

func CreateStudent(t *testing.T, repo student.Repository, name, studentID, grade string, createdAt ...time.Time) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	std, err := repo.CreateStudent(context.Background(), student.Student{
		Name:       name,
		StudentID:  studentID,
		Grade:      null.NewString(grade, grade != ""),
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
		Attendance: &student.Attendance{},
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

// CreateSubject creates a Subject for std with the given grades.
func CreateSubject(t *testing.T, repo student.Repository, std student.Student, name, performance string, grades ...float64) student.Subject {
	ctx := context.Background()
	sub, err := repo.CreateSubject(ctx, student.Subject{
		StudentID:   std.ID,
		Name:        name,
		Performance: null.NewString(performance, performance != ""),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	for _, v := range grades {
		g, err := repo.CreateGrade(ctx, student.Grade{SubjectID: sub.ID, Value: v, CreatedAt: time.Now().UTC()})
		if err != nil {
			t.Fatalf("CreateGrade() failed: %v", err)
		}
		sub.Grades = append(sub.Grades, g)
	}
	return sub
}

func SetAttendance(t *testing.T, repo student.Repository, std student.Student, present, absent, late int) student.Attendance {
	att, err := repo.UpsertAttendance(context.Background(), std.ID, student.UpdateAttendance{
		Present: &present,
		Absent:  &absent,
		Late:    &late,
	})
	if err != nil {
		t.Fatalf("SetAttendance() failed: %v", err)
	}
	return att
}

func CreateNote(t *testing.T, repo student.Repository, std student.Student, content string, createdAt ...time.Time) student.BehavioralNote {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	note, err := repo.CreateBehavioralNote(context.Background(), student.BehavioralNote{
		StudentID: std.ID,
		Content:   content,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateNote() failed: %v", err)
	}
	return note
}

func GetStudent(t *testing.T, repo student.Repository, id string) student.Student {
	std, err := repo.GetStudent(context.Background(), id)
	if err != nil {
		t.Fatalf("GetStudent() failed: %v", err)
	}
	return std
}

// FakeGenerator is a feedback.Generator returning canned completions.
// It records every prompt it receives.
type FakeGenerator struct {
	mu      sync.Mutex
	Text    string
	Err     error
	Hook    func(ctx context.Context) // called before answering
	prompts []string
}

var _ feedback.Generator = (*FakeGenerator)(nil)

func (g *FakeGenerator) Name() string { return "Fake Model" }

func (g *FakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	hook, text, err := g.Hook, g.Text, g.Err
	g.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	return text, err
}

func (g *FakeGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// Logger is a core.Logger that discards everything.
type Logger struct{}

var _ core.Logger = Logger{}

func (Logger) Debug(string, ...interface{}) {}
func (Logger) Info(string, ...interface{})  {}
func (Logger) Warn(string, ...interface{})  {}
func (Logger) Error(string, ...interface{}) {}
func (Logger) Fatal(string, ...interface{}) {}
