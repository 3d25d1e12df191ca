package feedback

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/trezcool/ripoti/core/student"
)

const (
	phName            = "{{name}}"
	phGrade           = "{{grade}}"
	phSubjectsData    = "{{subjectsData}}"
	phAttendanceData  = "{{attendanceData}}"
	phBehavioralNotes = "{{behavioralNotes}}"

	noSubjectsText      = "No subjects recorded."
	noNotesText         = "No behavioral notes recorded."
	noGradeLabelText    = "Not specified"
	attendanceLayout    = "Present: %d days, Absent: %d days, Late: %d days, Attendance Rate: %d%%"
	subjectLineLayout   = "- %s: Performance %s, Grades: %s, Average: %s"
	recordSectionLayout = `The student is in grade {{grade}}.

Academic Information:
{{subjectsData}}

Attendance Information:
{{attendanceData}}

Behavioral Notes:
{{behavioralNotes}}
`
)

var (
	placeholders     = []string{phName, phGrade, phSubjectsData, phAttendanceData, phBehavioralNotes}
	placeholderRegex = regexp.MustCompile(`\{\{\w+\}\}`)

	templates = map[Type]string{
		TypeImprovement: "Based on the student data provided, generate specific areas for improvement for {{name}}.\n" +
			recordSectionLayout + `
Please provide specific, actionable feedback that focuses on areas where the student can improve.
Include specific strategies that would be helpful for the student to implement.
Format the response in a professional but warm tone that would be appropriate for a teacher
to share with a student or parent.`,

		TypeStrengths: "Based on the student data provided, highlight the strengths and positive attributes of {{name}}.\n" +
			recordSectionLayout + `
Please provide specific feedback that focuses on the student's strengths and achievements.
Highlight areas where the student excels and provide encouragement.
Format the response in a professional but warm tone that would be appropriate for a teacher
to share with a student or parent.`,

		TypeParentConference: "Based on the student data provided, prepare talking points for a parent-teacher conference for {{name}}.\n" +
			recordSectionLayout + `
Please provide comprehensive talking points that cover both strengths and areas for improvement.
Include specific examples from the data. Suggest strategies that could be implemented at home to support the student.
Format the response in a professional but warm tone that would be appropriate for a teacher
to discuss with parents during a conference.`,
	}
)

func init() {
	for t, tmpl := range templates {
		if err := checkTemplate(tmpl); err != nil {
			panic(fmt.Sprintf("feedback: %s template: %v", t, err))
		}
	}
}

// checkTemplate ensures every token of tmpl is a known placeholder and every placeholder appears exactly once.
func checkTemplate(tmpl string) error {
	counts := make(map[string]int, len(placeholders))
	for _, tok := range placeholderRegex.FindAllString(tmpl, -1) {
		counts[tok]++
	}
	for _, ph := range placeholders {
		if counts[ph] != 1 {
			return fmt.Errorf("placeholder %s found %d times", ph, counts[ph])
		}
		delete(counts, ph)
	}
	if len(counts) > 0 {
		unknown := make([]string, 0, len(counts))
		for tok := range counts {
			unknown = append(unknown, tok)
		}
		return fmt.Errorf("unknown placeholders %v", unknown)
	}
	return nil
}

// BuildPrompt renders the prompt of type t for the summarised student.
// Values are substituted in a single pass and are never re-scanned for placeholders.
func BuildPrompt(sum student.Summary, t Type) (string, error) {
	tmpl, ok := templates[t]
	if !ok {
		return "", invalidTypeError()
	}

	grade := noGradeLabelText
	if sum.Grade.Valid && sum.Grade.String != "" {
		grade = sum.Grade.String
	}

	r := strings.NewReplacer(
		phName, sum.Name,
		phGrade, grade,
		phSubjectsData, renderSubjects(sum.Subjects),
		phAttendanceData, renderAttendance(sum.Attendance),
		phBehavioralNotes, renderNotes(sum.BehavioralNotes),
	)
	return r.Replace(tmpl), nil
}

func renderSubjects(subjects []student.SubjectSummary) string {
	if len(subjects) == 0 {
		return noSubjectsText
	}
	lines := make([]string, 0, len(subjects))
	for _, sub := range subjects {
		values := make([]string, 0, len(sub.Grades))
		for _, v := range sub.Grades {
			values = append(values, student.FormatNumber(v))
		}
		// no grades renders as "Grades: , Average: No grades recorded"
		lines = append(lines, fmt.Sprintf(subjectLineLayout, sub.Name, sub.Performance, strings.Join(values, ", "), sub.AverageText()))
	}
	return strings.Join(lines, "\n")
}

func renderAttendance(att student.AttendanceSummary) string {
	switch a := att.(type) {
	case student.RecordedAttendance:
		return fmt.Sprintf(attendanceLayout, a.Present, a.Absent, a.Late, a.RatePercent())
	case student.UnrecordedAttendance, nil:
		return student.NoAttendanceText
	default:
		panic(fmt.Sprintf("feedback: unexpected attendance summary %T", att))
	}
}

func renderNotes(notes []string) string {
	if len(notes) == 0 {
		return noNotesText
	}
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, "- "+n)
	}
	return strings.Join(lines, "\n")
}
