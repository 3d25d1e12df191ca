package student

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ripoti/core"
)

var (
	// errors
	ErrNotFound        = errors.New("student not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrStudentIDExists = errors.New("a student with this student ID already exists")
)

const unknownOrderingText = "unknown ordering field"

type (
	Repository interface {
		// StudentIDExists reports whether a Student other than excludedIDs uses studentID.
		StudentIDExists(ctx context.Context, studentID string, excludedIDs ...string) (bool, error)
		// CreateStudent inserts the Student and its Attendance, if any.
		CreateStudent(ctx context.Context, std Student) (Student, error)
		// QueryStudents returns students with all their records.
		// QueryFilter.Search does a case-insensitive match on Student.Name.
		// Without ordering, students are sorted by grade (A+ first, ungraded last) then student ID.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		// GetStudent returns the Student with all its records, or ErrNotFound.
		GetStudent(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		// DeleteStudent deletes the Student and everything it owns.
		DeleteStudent(ctx context.Context, id string) error

		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		CreateGrade(ctx context.Context, grade Grade) (Grade, error)
		// UpsertAttendance creates the student's Attendance if absent, else overwrites the provided counters.
		UpsertAttendance(ctx context.Context, studentID string, ua UpdateAttendance) (Attendance, error)
		CreateBehavioralNote(ctx context.Context, note BehavioralNote) (BehavioralNote, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var nowFunc = time.Now // mockable

func (svc *Service) checkUniqueness(ctx context.Context, studentID string, excludedIDs ...string) error {
	exists, err := svc.repo.StudentIDExists(ctx, studentID, excludedIDs...)
	if err != nil {
		return err
	}
	if exists {
		return studentIDExistsError()
	}
	return nil
}

func studentIDExistsError() error {
	return core.NewValidationError(ErrStudentIDExists, core.FieldError{Field: "student_id", Error: ErrStudentIDExists.Error()})
}

// trapStudentIDExists turns a store-level student ID collision (lost uniqueness race) into a validation error.
func trapStudentIDExists(std Student, err error) (Student, error) {
	if errors.Is(err, ErrStudentIDExists) {
		return Student{}, studentIDExistsError()
	}
	return std, err
}

// Create creates the Student along with an empty Attendance record.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := nowFunc().UTC()
	std := Student{
		Name:       ns.Name,
		StudentID:  ns.StudentID,
		Grade:      null.StringFromPtr(ns.Grade),
		CreatedAt:  now,
		UpdatedAt:  now,
		Attendance: &Attendance{},
	}
	return trapStudentIDExists(svc.repo.CreateStudent(ctx, std))
}

// CleanOrdering keeps the known ordering fields, mapped to their column.
func CleanOrdering(ordering []core.DBOrdering) ([]core.DBOrdering, error) {
	cleaned := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := OrderingFields[ord.Field]
		if !ok {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "ordering", Error: unknownOrderingText + ": " + ord.Field})
		}
		cleaned = append(cleaned, core.DBOrdering{Field: col, Ascending: ord.Ascending})
	}
	return cleaned, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	ordering, err := CleanOrdering(ordering)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) Update(ctx context.Context, std Student, us UpdateStudent) (Student, error) {
	if us.Name != nil {
		std.Name = *us.Name
	}
	if us.StudentID != nil {
		std.StudentID = *us.StudentID
	}
	if us.Grade != nil {
		std.Grade = core.NullString(*us.Grade)
	}
	std.UpdatedAt = nowFunc().UTC()
	return trapStudentIDExists(svc.repo.UpdateStudent(ctx, std))
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}

func (svc *Service) AddSubject(ctx context.Context, studentID string, ns NewSubject) (Subject, error) {
	sub := Subject{
		StudentID:   studentID,
		Name:        ns.Name,
		Performance: null.StringFromPtr(ns.Performance),
		CreatedAt:   nowFunc().UTC(),
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *Service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *Service) UpdateSubject(ctx context.Context, sub Subject, us UpdateSubject) (Subject, error) {
	if us.Name != nil {
		sub.Name = *us.Name
	}
	if us.Performance != nil {
		sub.Performance = core.NullString(*us.Performance)
	}
	return svc.repo.UpdateSubject(ctx, sub)
}

func (svc *Service) AddGrade(ctx context.Context, subjectID string, ng NewGrade) (Grade, error) {
	grade := Grade{
		SubjectID: subjectID,
		Value:     *ng.Value,
		CreatedAt: nowFunc().UTC(),
	}
	return svc.repo.CreateGrade(ctx, grade)
}

func (svc *Service) UpsertAttendance(ctx context.Context, studentID string, ua UpdateAttendance) (Attendance, error) {
	return svc.repo.UpsertAttendance(ctx, studentID, ua)
}

func (svc *Service) AddBehavioralNote(ctx context.Context, studentID string, nn NewBehavioralNote) (BehavioralNote, error) {
	note := BehavioralNote{
		StudentID: studentID,
		Content:   nn.Content,
		CreatedAt: nowFunc().UTC(),
	}
	return svc.repo.CreateBehavioralNote(ctx, note)
}

func (svc *Service) Export(ctx context.Context, id string) (Export, error) {
	std, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Export{}, err
	}
	return NewExport(std), nil
}
