package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

// studentIDUsed must be called with a lock held.
func (repo *studentRepository) studentIDUsed(studentID string, excludedIDs ...string) bool {
	for id, r := range repo.db.students {
		if r.val.StudentID == studentID && !isExcluded(id, excludedIDs) {
			return true
		}
	}
	return false
}

func isExcluded(id string, excludedIDs []string) bool {
	for _, excl := range excludedIDs {
		if id == excl {
			return true
		}
	}
	return false
}

func (repo *studentRepository) StudentIDExists(_ context.Context, studentID string, excludedIDs ...string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.studentIDUsed(studentID, excludedIDs...), nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.studentIDUsed(std.StudentID) {
		return student.Student{}, student.ErrStudentIDExists
	}

	std.ID = uuid.New().String()
	att := std.Attendance
	stored := std
	stored.Subjects, stored.Attendance, stored.BehavioralNotes = nil, nil, nil
	repo.db.students[std.ID] = row[student.Student]{seq: repo.db.next(), val: stored}

	if att != nil {
		a := *att
		a.ID = uuid.New().String()
		a.StudentID = std.ID
		repo.db.attendances[std.ID] = row[student.Attendance]{seq: repo.db.next(), val: a}
		std.Attendance = &a
	}
	return std, nil
}

// withRecords must be called with a lock held.
func (repo *studentRepository) withRecords(std student.Student) student.Student {
	subjects := make([]row[student.Subject], 0)
	for _, r := range repo.db.subjects {
		if r.val.StudentID == std.ID {
			subjects = append(subjects, r)
		}
	}
	sortRows(subjects)
	std.Subjects = make([]student.Subject, 0, len(subjects))
	for _, r := range subjects {
		std.Subjects = append(std.Subjects, repo.withGrades(r.val))
	}

	std.Attendance = nil
	if r, ok := repo.db.attendances[std.ID]; ok {
		att := r.val
		std.Attendance = &att
	}

	notes := make([]row[student.BehavioralNote], 0)
	for _, r := range repo.db.notes {
		if r.val.StudentID == std.ID {
			notes = append(notes, r)
		}
	}
	sortRows(notes)
	std.BehavioralNotes = make([]student.BehavioralNote, 0, len(notes))
	for _, r := range notes {
		std.BehavioralNotes = append(std.BehavioralNotes, r.val)
	}
	return std
}

// withGrades must be called with a lock held.
func (repo *studentRepository) withGrades(sub student.Subject) student.Subject {
	grades := make([]row[student.Grade], 0)
	for _, r := range repo.db.grades {
		if r.val.SubjectID == sub.ID {
			grades = append(grades, r)
		}
	}
	sortRows(grades)
	sub.Grades = make([]student.Grade, 0, len(grades))
	for _, r := range grades {
		sub.Grades = append(sub.Grades, r.val)
	}
	return sub
}

func sortRows[T any](rows []row[T]) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var search string
	if filter != nil {
		search = strings.ToLower(filter.Search)
	}

	students := make([]student.Student, 0, len(repo.db.students))
	for _, r := range repo.db.students {
		if search != "" && !strings.Contains(strings.ToLower(r.val.Name), search) {
			continue
		}
		students = append(students, repo.withRecords(r.val))
	}

	if len(ordering) == 0 {
		ordering = student.DefaultOrdering
	}
	ordering = core.WithTieBreaker(ordering, "student_id")
	sort.Slice(students, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareField(students[i], students[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return students, nil
}

func compareField(a, b student.Student, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "student_id":
		return strings.Compare(a.StudentID, b.StudentID)
	case "grade":
		return student.GradeRank(a.Grade) - student.GradeRank(b.Grade)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return 0
	}
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	r, ok := repo.db.students[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	return repo.withRecords(r.val), nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r, ok := repo.db.students[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if repo.studentIDUsed(std.StudentID, std.ID) {
		return student.Student{}, student.ErrStudentIDExists
	}

	// only save own fields
	r.val.Name = std.Name
	r.val.StudentID = std.StudentID
	r.val.Grade = std.Grade
	r.val.UpdatedAt = std.UpdatedAt
	repo.db.students[std.ID] = r
	return std, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.students, id)
	delete(repo.db.attendances, id)
	for subID, r := range repo.db.subjects {
		if r.val.StudentID != id {
			continue
		}
		for gradeID, g := range repo.db.grades {
			if g.val.SubjectID == subID {
				delete(repo.db.grades, gradeID)
			}
		}
		delete(repo.db.subjects, subID)
	}
	for noteID, r := range repo.db.notes {
		if r.val.StudentID == id {
			delete(repo.db.notes, noteID)
		}
	}
	for fbID, r := range repo.db.feedback {
		if r.val.StudentID == id {
			delete(repo.db.feedback, fbID)
		}
	}
	return nil
}

func (repo *studentRepository) CreateSubject(_ context.Context, sub student.Subject) (student.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[sub.StudentID]; !ok {
		return student.Subject{}, student.ErrNotFound
	}
	sub.ID = uuid.New().String()
	sub.Grades = nil
	repo.db.subjects[sub.ID] = row[student.Subject]{seq: repo.db.next(), val: sub}
	sub.Grades = make([]student.Grade, 0)
	return sub, nil
}

func (repo *studentRepository) GetSubject(_ context.Context, id string) (student.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	r, ok := repo.db.subjects[id]
	if !ok {
		return student.Subject{}, student.ErrSubjectNotFound
	}
	return repo.withGrades(r.val), nil
}

func (repo *studentRepository) UpdateSubject(_ context.Context, sub student.Subject) (student.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r, ok := repo.db.subjects[sub.ID]
	if !ok {
		return student.Subject{}, student.ErrSubjectNotFound
	}
	r.val.Name = sub.Name
	r.val.Performance = sub.Performance
	repo.db.subjects[sub.ID] = r
	return sub, nil
}

func (repo *studentRepository) CreateGrade(_ context.Context, grade student.Grade) (student.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.subjects[grade.SubjectID]; !ok {
		return student.Grade{}, student.ErrSubjectNotFound
	}
	grade.ID = uuid.New().String()
	repo.db.grades[grade.ID] = row[student.Grade]{seq: repo.db.next(), val: grade}
	return grade, nil
}

func (repo *studentRepository) UpsertAttendance(_ context.Context, studentID string, ua student.UpdateAttendance) (student.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[studentID]; !ok {
		return student.Attendance{}, student.ErrNotFound
	}
	r, ok := repo.db.attendances[studentID]
	if !ok {
		r = row[student.Attendance]{
			seq: repo.db.next(),
			val: student.Attendance{ID: uuid.New().String(), StudentID: studentID},
		}
	}
	if ua.Present != nil {
		r.val.Present = *ua.Present
	}
	if ua.Absent != nil {
		r.val.Absent = *ua.Absent
	}
	if ua.Late != nil {
		r.val.Late = *ua.Late
	}
	repo.db.attendances[studentID] = r
	return r.val, nil
}

func (repo *studentRepository) CreateBehavioralNote(_ context.Context, note student.BehavioralNote) (student.BehavioralNote, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[note.StudentID]; !ok {
		return student.BehavioralNote{}, student.ErrNotFound
	}
	note.ID = uuid.New().String()
	repo.db.notes[note.ID] = row[student.BehavioralNote]{seq: repo.db.next(), val: note}
	return note, nil
}
