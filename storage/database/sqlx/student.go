package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/student"
)

const (
	studentColumns    = "id, name, student_id, grade, created_at, updated_at"
	subjectColumns    = "id, student_id, name, performance, created_at"
	gradeColumns      = "id, subject_id, value, created_at"
	attendanceColumns = "id, student_id, present, absent, late"
	noteColumns       = "id, student_id, content, created_at"
)

// gradeRankExpr ranks student.grade like student.GradeRank (A+ is 0, ungraded last).
var gradeRankExpr = fmt.Sprintf(
	"COALESCE(array_position(ARRAY['%s']::text[], grade) - 1, %d)",
	strings.Join(student.GradeLabels, "','"), len(student.GradeLabels))

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to notFoundErr
func trapNoRowsErr(err error, notFoundErr error, msg string) error {
	if err == sql.ErrNoRows {
		return notFoundErr
	}
	return errors.Wrap(err, msg)
}

func isUUID(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func (repo studentRepository) StudentIDExists(ctx context.Context, studentID string, excludedIDs ...string) (bool, error) {
	q := "SELECT EXISTS (SELECT 1 FROM student WHERE student_id = ?"
	args := []interface{}{studentID}

	excluded := make([]string, 0, len(excludedIDs))
	for _, id := range excludedIDs {
		if isUUID(id) {
			excluded = append(excluded, id)
		}
	}
	if len(excluded) > 0 {
		q += " AND id NOT IN (?)"
		args = append(args, excluded)
	}
	q += ")"

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return false, errors.Wrap(err, "building uniqueness query")
	}
	var exists bool
	if err = repo.db.GetContext(ctx, &exists, repo.db.Rebind(q), args...); err != nil {
		return false, errors.Wrap(err, "checking student ID uniqueness")
	}
	return exists, nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	std.ID = uuid.New().String()
	std.CreatedAt = std.CreatedAt.UTC()
	std.UpdatedAt = std.UpdatedAt.UTC()

	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO student (`+studentColumns+`)
			VALUES (:id, :name, :student_id, :grade, :created_at, :updated_at)`, std)
		if err != nil {
			return mapConstraintErr(err, nil, "inserting student")
		}

		if std.Attendance != nil {
			att := *std.Attendance
			att.ID = uuid.New().String()
			att.StudentID = std.ID
			_, err = tx.NamedExecContext(ctx,
				`INSERT INTO attendance (`+attendanceColumns+`)
				VALUES (:id, :student_id, :present, :absent, :late)`, att)
			if err != nil {
				return errors.Wrap(err, "inserting attendance")
			}
			std.Attendance = &att
		}
		return nil
	})
	if err != nil {
		return student.Student{}, err
	}
	return std, nil
}

func (repo studentRepository) orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		ordering = student.DefaultOrdering
	}
	ordering = core.WithTieBreaker(ordering, "student_id")

	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if ord.Field == "grade" {
			ord.Field = gradeRankExpr
		}
		orderList = append(orderList, ord.String())
	}
	return strings.Join(orderList, ", ")
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	q := "SELECT " + studentColumns + " FROM student"
	var args []interface{}
	if filter != nil && filter.Search != "" {
		q += " WHERE name ILIKE ?"
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}
	q += " ORDER BY " + repo.orderBy(ordering)

	students := make([]student.Student, 0)
	if err := repo.db.SelectContext(ctx, &students, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	if err := repo.loadRecords(ctx, students); err != nil {
		return nil, err
	}
	return students, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	if !isUUID(id) {
		return student.Student{}, student.ErrNotFound
	}
	var std student.Student
	err := repo.db.GetContext(ctx, &std, "SELECT "+studentColumns+" FROM student WHERE id = $1", id)
	if err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student by ID")
	}

	students := []student.Student{std}
	if err = repo.loadRecords(ctx, students); err != nil {
		return student.Student{}, err
	}
	return students[0], nil
}

// loadRecords fills the subjects (with their grades), attendance and behavioral notes of students.
func (repo studentRepository) loadRecords(ctx context.Context, students []student.Student) error {
	if len(students) == 0 {
		return nil
	}
	ids := make([]string, 0, len(students))
	idx := make(map[string]int, len(students))
	for i, std := range students {
		ids = append(ids, std.ID)
		idx[std.ID] = i
		students[i].Subjects = make([]student.Subject, 0)
		students[i].BehavioralNotes = make([]student.BehavioralNote, 0)
	}

	var subjects []student.Subject
	if err := repo.selectIn(ctx, &subjects,
		"SELECT "+subjectColumns+" FROM subject WHERE student_id IN (?) ORDER BY created_at, id", ids); err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if err := repo.loadGrades(ctx, subjects); err != nil {
		return err
	}
	for _, sub := range subjects {
		i := idx[sub.StudentID]
		students[i].Subjects = append(students[i].Subjects, sub)
	}

	var attendances []student.Attendance
	if err := repo.selectIn(ctx, &attendances,
		"SELECT "+attendanceColumns+" FROM attendance WHERE student_id IN (?)", ids); err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	for i := range attendances {
		att := attendances[i]
		students[idx[att.StudentID]].Attendance = &att
	}

	var notes []student.BehavioralNote
	if err := repo.selectIn(ctx, &notes,
		"SELECT "+noteColumns+" FROM behavioral_note WHERE student_id IN (?) ORDER BY created_at, id", ids); err != nil {
		return errors.Wrap(err, "querying behavioral notes")
	}
	for _, note := range notes {
		i := idx[note.StudentID]
		students[i].BehavioralNotes = append(students[i].BehavioralNotes, note)
	}
	return nil
}

func (repo studentRepository) loadGrades(ctx context.Context, subjects []student.Subject) error {
	if len(subjects) == 0 {
		return nil
	}
	ids := make([]string, 0, len(subjects))
	idx := make(map[string]int, len(subjects))
	for i, sub := range subjects {
		ids = append(ids, sub.ID)
		idx[sub.ID] = i
		subjects[i].Grades = make([]student.Grade, 0)
	}

	var grades []student.Grade
	if err := repo.selectIn(ctx, &grades,
		"SELECT "+gradeColumns+" FROM grade WHERE subject_id IN (?) ORDER BY created_at, id", ids); err != nil {
		return errors.Wrap(err, "querying grades")
	}
	for _, g := range grades {
		i := idx[g.SubjectID]
		subjects[i].Grades = append(subjects[i].Grades, g)
	}
	return nil
}

func (repo studentRepository) selectIn(ctx context.Context, dest interface{}, query string, ids []string) error {
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return err
	}
	return repo.db.SelectContext(ctx, dest, repo.db.Rebind(q), args...)
}

func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	if !isUUID(std.ID) {
		return student.Student{}, student.ErrNotFound
	}
	std.UpdatedAt = std.UpdatedAt.UTC()
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE student SET name = :name, student_id = :student_id, grade = :grade, updated_at = :updated_at
		WHERE id = :id`, std)
	if err != nil {
		return student.Student{}, mapConstraintErr(err, nil, "updating student")
	}
	if err = checkAffected(res, student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return std, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id string) error {
	if !isUUID(id) {
		return student.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM student WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return checkAffected(res, student.ErrNotFound)
}

func (repo studentRepository) CreateSubject(ctx context.Context, sub student.Subject) (student.Subject, error) {
	if !isUUID(sub.StudentID) {
		return student.Subject{}, student.ErrNotFound
	}
	sub.ID = uuid.New().String()
	sub.CreatedAt = sub.CreatedAt.UTC()
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO subject (`+subjectColumns+`)
		VALUES (:id, :student_id, :name, :performance, :created_at)`, sub)
	if err != nil {
		return student.Subject{}, mapConstraintErr(err, student.ErrNotFound, "inserting subject")
	}
	sub.Grades = make([]student.Grade, 0)
	return sub, nil
}

func (repo studentRepository) GetSubject(ctx context.Context, id string) (student.Subject, error) {
	if !isUUID(id) {
		return student.Subject{}, student.ErrSubjectNotFound
	}
	var sub student.Subject
	err := repo.db.GetContext(ctx, &sub, "SELECT "+subjectColumns+" FROM subject WHERE id = $1", id)
	if err != nil {
		return student.Subject{}, trapNoRowsErr(err, student.ErrSubjectNotFound, "finding subject by ID")
	}
	subjects := []student.Subject{sub}
	if err = repo.loadGrades(ctx, subjects); err != nil {
		return student.Subject{}, err
	}
	return subjects[0], nil
}

func (repo studentRepository) UpdateSubject(ctx context.Context, sub student.Subject) (student.Subject, error) {
	if !isUUID(sub.ID) {
		return student.Subject{}, student.ErrSubjectNotFound
	}
	res, err := repo.db.NamedExecContext(ctx,
		"UPDATE subject SET name = :name, performance = :performance WHERE id = :id", sub)
	if err != nil {
		return student.Subject{}, errors.Wrap(err, "updating subject")
	}
	if err = checkAffected(res, student.ErrSubjectNotFound); err != nil {
		return student.Subject{}, err
	}
	return sub, nil
}

func (repo studentRepository) CreateGrade(ctx context.Context, grade student.Grade) (student.Grade, error) {
	if !isUUID(grade.SubjectID) {
		return student.Grade{}, student.ErrSubjectNotFound
	}
	grade.ID = uuid.New().String()
	grade.CreatedAt = grade.CreatedAt.UTC()
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO grade (`+gradeColumns+`) VALUES (:id, :subject_id, :value, :created_at)`, grade)
	if err != nil {
		return student.Grade{}, mapConstraintErr(err, student.ErrSubjectNotFound, "inserting grade")
	}
	return grade, nil
}

func (repo studentRepository) UpsertAttendance(ctx context.Context, studentID string, ua student.UpdateAttendance) (student.Attendance, error) {
	if !isUUID(studentID) {
		return student.Attendance{}, student.ErrNotFound
	}
	var att student.Attendance
	err := repo.db.GetContext(ctx, &att,
		`INSERT INTO attendance (`+attendanceColumns+`)
		VALUES ($1, $2, COALESCE($3::integer, 0), COALESCE($4::integer, 0), COALESCE($5::integer, 0))
		ON CONFLICT (student_id) DO UPDATE SET
			present = COALESCE($3::integer, attendance.present),
			absent = COALESCE($4::integer, attendance.absent),
			late = COALESCE($5::integer, attendance.late)
		RETURNING `+attendanceColumns,
		uuid.New().String(), studentID, ua.Present, ua.Absent, ua.Late)
	if err != nil {
		return student.Attendance{}, mapConstraintErr(err, student.ErrNotFound, "upserting attendance")
	}
	return att, nil
}

func (repo studentRepository) CreateBehavioralNote(ctx context.Context, note student.BehavioralNote) (student.BehavioralNote, error) {
	if !isUUID(note.StudentID) {
		return student.BehavioralNote{}, student.ErrNotFound
	}
	note.ID = uuid.New().String()
	note.CreatedAt = note.CreatedAt.UTC()
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO behavioral_note (`+noteColumns+`) VALUES (:id, :student_id, :content, :created_at)`, note)
	if err != nil {
		return student.BehavioralNote{}, mapConstraintErr(err, student.ErrNotFound, "inserting behavioral note")
	}
	return note, nil
}

// escapeLike escapes the LIKE wildcards of s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
