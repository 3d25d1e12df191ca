package student

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ripoti/core"
)

// Upper bounds of the numeric inputs, mirrored by the `lte` validation tags and the table CHECKs.
const (
	MaxGradeValue     = 1000
	MaxAttendanceDays = 100000
)

// Grade labels, highest first.
const (
	GradeAPlus = "A+"
	GradeA     = "A"
	GradeBPlus = "B+"
	GradeB     = "B"
	GradeCPlus = "C+"
	GradeC     = "C"
	GradeDPlus = "D+"
	GradeD     = "D"
	GradeF     = "F"
)

var (
	GradeLabels = []string{GradeAPlus, GradeA, GradeBPlus, GradeB, GradeCPlus, GradeC, GradeDPlus, GradeD, GradeF}

	// OrderingFields maps the public ordering names to their column.
	OrderingFields = map[string]string{
		"name":       "name",
		"student_id": "student_id",
		"grade":      "grade",
		"created_at": "created_at",
	}

	// DefaultOrdering sorts by grade, A+ first and ungraded last.
	DefaultOrdering = []core.DBOrdering{{Field: "grade", Ascending: true}}
)

// GradeRank returns the position of label in GradeLabels (A+ is 0).
// Unset or unknown labels rank after F.
func GradeRank(label null.String) int {
	if label.Valid {
		for i, l := range GradeLabels {
			if l == label.String {
				return i
			}
		}
	}
	return len(GradeLabels)
}

func IsGradeLabel(label string) bool {
	for _, l := range GradeLabels {
		if l == label {
			return true
		}
	}
	return false
}

type Student struct {
	ID              string           `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	StudentID       string           `json:"student_id" db:"student_id"`
	Grade           null.String      `json:"grade" db:"grade"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"` // UTC
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"` // UTC
	Subjects        []Subject        `json:"subjects" db:"-"`
	Attendance      *Attendance      `json:"attendance" db:"-"`
	BehavioralNotes []BehavioralNote `json:"behavioral_notes" db:"-"`
}

type Subject struct {
	ID          string      `json:"id" db:"id"`
	StudentID   string      `json:"student_id" db:"student_id"`
	Name        string      `json:"name" db:"name"`
	Performance null.String `json:"performance" db:"performance"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	Grades      []Grade     `json:"grades" db:"-"`
}

type Grade struct {
	ID        string    `json:"id" db:"id"`
	SubjectID string    `json:"subject_id" db:"subject_id"`
	Value     float64   `json:"value" db:"value"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Attendance struct {
	ID        string `json:"id" db:"id"`
	StudentID string `json:"student_id" db:"student_id"`
	Present   int    `json:"present" db:"present"`
	Absent    int    `json:"absent" db:"absent"`
	Late      int    `json:"late" db:"late"`
}

type BehavioralNote struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name      string  `json:"name" validate:"required,notblank,max=255"`
	StudentID string  `json:"student_id" validate:"required,notblank,max=64"`
	Grade     *string `json:"grade" validate:"omitempty,gradelabel"`
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// An empty grade clears it.
type UpdateStudent struct {
	Name      *string `json:"name" validate:"omitempty,notblank,max=255"`
	StudentID *string `json:"student_id" validate:"omitempty,notblank,max=64"`
	Grade     *string `json:"grade" validate:"omitempty,gradelabel"`
}

type NewSubject struct {
	Name        string  `json:"name" validate:"required,notblank,max=255"`
	Performance *string `json:"performance" validate:"omitempty,max=255"`
}

type UpdateSubject struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=255"`
	Performance *string `json:"performance" validate:"omitempty,max=255"`
}

// NewGrade holds a score between 0 and MaxGradeValue.
type NewGrade struct {
	Value *float64 `json:"value" validate:"required,gte=0,lte=1000"`
}

// UpdateAttendance holds the counters to set; missing ones keep their current value
// (or 0 when the record is created). Each counter is at most MaxAttendanceDays.
type UpdateAttendance struct {
	Present *int `json:"present" validate:"omitempty,gte=0,lte=100000"`
	Absent  *int `json:"absent" validate:"omitempty,gte=0,lte=100000"`
	Late    *int `json:"late" validate:"omitempty,gte=0,lte=100000"`
}

type NewBehavioralNote struct {
	Content string `json:"content" validate:"required,notblank,max=5000"`
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Export is the flattened projection of a Student used for downloads.
type Export struct {
	Name            string          `json:"name"`
	StudentID       string          `json:"student_id"`
	Grade           null.String     `json:"grade"`
	Subjects        []ExportSubject `json:"subjects"`
	Attendance      *Attendance     `json:"attendance"`
	BehavioralNotes []string        `json:"behavioral_notes"`
}

type ExportSubject struct {
	Name         string       `json:"name"`
	Performance  null.String  `json:"performance"`
	AverageGrade null.Float64 `json:"average_grade"`
}
