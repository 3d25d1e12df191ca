package student

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/volatiletech/null/v8"
)

// Fallback texts used wherever a record has nothing to summarise.
const (
	NoPerformanceText = "Not specified"
	NoGradesText      = "No grades recorded"
	NoAttendanceText  = "No attendance records"
)

// Summary is a fallback-safe projection of a Student and all its records.
type Summary struct {
	Name            string
	StudentID       string
	Grade           null.String
	Subjects        []SubjectSummary
	Attendance      AttendanceSummary
	BehavioralNotes []string
}

type SubjectSummary struct {
	Name        string
	Performance string
	Grades      []float64
	Average     null.Float64 // invalid when no grades are recorded
}

// AverageText renders the average or NoGradesText.
func (ss SubjectSummary) AverageText() string {
	if !ss.Average.Valid {
		return NoGradesText
	}
	return FormatNumber(ss.Average.Float64)
}

// AttendanceSummary is either RecordedAttendance or UnrecordedAttendance.
type AttendanceSummary interface {
	attendanceSummary()
}

type RecordedAttendance struct {
	Present int
	Absent  int
	Late    int
	Rate    float64 // present / (present + absent + late), in [0, 1]
}

// UnrecordedAttendance stands for a missing attendance record, or one with no days counted.
type UnrecordedAttendance struct{}

func (RecordedAttendance) attendanceSummary()   {}
func (UnrecordedAttendance) attendanceSummary() {}

// RatePercent is the attendance rate rounded to the nearest integer percent.
func (ra RecordedAttendance) RatePercent() int {
	return int(math.Round(ra.Rate * 100))
}

// Summarize aggregates the student record. It never fails: empty collections
// degrade to their fallback representation.
func Summarize(std Student) Summary {
	sum := Summary{
		Name:            std.Name,
		StudentID:       std.StudentID,
		Grade:           std.Grade,
		Subjects:        make([]SubjectSummary, 0, len(std.Subjects)),
		Attendance:      summarizeAttendance(std.Attendance),
		BehavioralNotes: summarizeNotes(std.BehavioralNotes),
	}
	for _, sub := range std.Subjects {
		sum.Subjects = append(sum.Subjects, summarizeSubject(sub))
	}
	return sum
}

func summarizeSubject(sub Subject) SubjectSummary {
	ss := SubjectSummary{
		Name:        sub.Name,
		Performance: NoPerformanceText,
		Grades:      make([]float64, 0, len(sub.Grades)),
	}
	if sub.Performance.Valid && strings.TrimSpace(sub.Performance.String) != "" {
		ss.Performance = sub.Performance.String
	}

	for _, g := range sub.Grades {
		ss.Grades = append(ss.Grades, g.Value)
	}
	if avg, ok := mean(ss.Grades); ok {
		ss.Average = null.Float64From(avg)
	}
	return ss
}

// mean is the arithmetic mean of values, updated incrementally so large values cannot overflow.
// It is not ok for an empty slice or a non-finite result.
func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var avg float64
	for i, v := range values {
		avg += (v - avg) / float64(i+1)
	}
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0, false
	}
	return avg, true
}

func summarizeAttendance(att *Attendance) AttendanceSummary {
	if att == nil || att.Present < 0 || att.Absent < 0 || att.Late < 0 {
		return UnrecordedAttendance{}
	}
	// summed as floats: the int sum may overflow
	total := float64(att.Present) + float64(att.Absent) + float64(att.Late)
	if total == 0 {
		return UnrecordedAttendance{}
	}
	return RecordedAttendance{
		Present: att.Present,
		Absent:  att.Absent,
		Late:    att.Late,
		Rate:    float64(att.Present) / total,
	}
}

// summarizeNotes returns the notes' text in chronological order.
func summarizeNotes(notes []BehavioralNote) []string {
	sorted := make([]BehavioralNote, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	texts := make([]string, 0, len(sorted))
	for _, n := range sorted {
		texts = append(texts, n.Content)
	}
	return texts
}

// NewExport builds the export projection of std.
func NewExport(std Student) Export {
	exp := Export{
		Name:            std.Name,
		StudentID:       std.StudentID,
		Grade:           std.Grade,
		Subjects:        make([]ExportSubject, 0, len(std.Subjects)),
		Attendance:      std.Attendance,
		BehavioralNotes: summarizeNotes(std.BehavioralNotes),
	}
	for _, sub := range std.Subjects {
		exp.Subjects = append(exp.Subjects, ExportSubject{
			Name:         sub.Name,
			Performance:  sub.Performance,
			AverageGrade: summarizeSubject(sub).Average,
		})
	}
	return exp
}

// FormatNumber renders v in its shortest form (80, 85.5, 86.66666666666667).
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
