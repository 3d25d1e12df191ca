package feedback

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/student"
)

func TestCheckTemplate(t *testing.T) {
	for typ, tmpl := range templates {
		assert.NoError(t, checkTemplate(tmpl), typ)
		assert.Contains(t, tmpl, "professional but warm tone", typ)
	}

	tests := []struct {
		name    string
		tmpl    string
		wantErr string
	}{
		{name: "missing", tmpl: "{{name}} {{grade}} {{subjectsData}} {{attendanceData}}", wantErr: "placeholder {{behavioralNotes}} found 0 times"},
		{name: "repeated", tmpl: "{{name}} {{name}} {{grade}} {{subjectsData}} {{attendanceData}} {{behavioralNotes}}", wantErr: "placeholder {{name}} found 2 times"},
		{name: "unknown", tmpl: "{{name}} {{grade}} {{subjectsData}} {{attendanceData}} {{behavioralNotes}} {{age}}", wantErr: "unknown placeholders [{{age}}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkTemplate(tt.tmpl)
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	now := time.Now().UTC()
	std := student.Student{
		Name:      "Ada Lovelace",
		StudentID: "S-001",
		Grade:     null.StringFrom(student.GradeA),
		Subjects: []student.Subject{
			{Name: "Mathematics", Performance: null.StringFrom("Excellent"), Grades: []student.Grade{{Value: 80}, {Value: 90}}},
			{Name: "History", Grades: []student.Grade{{Value: 85.5}}},
			{Name: "Art"},
		},
		Attendance: &student.Attendance{Present: 18, Absent: 2},
		BehavioralNotes: []student.BehavioralNote{
			{Content: "Helps classmates", CreatedAt: now.Add(time.Hour)},
			{Content: "Participates actively", CreatedAt: now},
		},
	}

	prompt, err := BuildPrompt(student.Summarize(std), TypeParentConference)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "Based on the student data provided, prepare talking points for a parent-teacher conference for Ada Lovelace.\n"))
	assert.Contains(t, prompt, "The student is in grade A.")
	assert.Contains(t, prompt, "Academic Information:\n"+
		"- Mathematics: Performance Excellent, Grades: 80, 90, Average: 85\n"+
		"- History: Performance Not specified, Grades: 85.5, Average: 85.5\n"+
		"- Art: Performance Not specified, Grades: , Average: No grades recorded\n")
	assert.Contains(t, prompt, "Attendance Information:\nPresent: 18 days, Absent: 2 days, Late: 0 days, Attendance Rate: 90%\n")
	assert.Contains(t, prompt, "Behavioral Notes:\n- Participates actively\n- Helps classmates\n")
	assert.Contains(t, prompt, "discuss with parents during a conference")
	assert.NotRegexp(t, `\{\{\w+\}\}`, prompt)
}

func TestBuildPrompt_emptyRecord(t *testing.T) {
	for _, typ := range Types {
		prompt, err := BuildPrompt(student.Summarize(student.Student{Name: "Alan"}), typ)
		require.NoError(t, err)
		assert.Contains(t, prompt, "The student is in grade Not specified.")
		assert.Contains(t, prompt, "Academic Information:\nNo subjects recorded.\n")
		assert.Contains(t, prompt, "Attendance Information:\nNo attendance records\n")
		assert.Contains(t, prompt, "Behavioral Notes:\nNo behavioral notes recorded.\n")
	}
}

func TestBuildPrompt_placeholderLookalikes(t *testing.T) {
	std := student.Student{
		Name:            "{{grade}}",
		Grade:           null.StringFrom(student.GradeB),
		BehavioralNotes: []student.BehavioralNote{{Content: "wrote {{name}} on the board"}},
	}
	prompt, err := BuildPrompt(student.Summarize(std), TypeStrengths)
	require.NoError(t, err)

	assert.Contains(t, prompt, "positive attributes of {{grade}}.")
	assert.Contains(t, prompt, "The student is in grade B.")
	assert.Contains(t, prompt, "- wrote {{name}} on the board")
	assert.Equal(t, 1, strings.Count(prompt, "{{grade}}"))
	assert.Equal(t, 1, strings.Count(prompt, "{{name}}"))
}

func TestBuildPrompt_valuesAppearOnce(t *testing.T) {
	const name = "Zephyrine Quillfeather"
	std := student.Student{
		Name:     name,
		Grade:    null.StringFrom(student.GradeBPlus),
		Subjects: []student.Subject{{Name: "Astronomy", Grades: []student.Grade{{Value: 77}}}},
	}
	prompt, err := BuildPrompt(student.Summarize(std), TypeStrengths)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(prompt, name))
	assert.Equal(t, 1, strings.Count(prompt, "B+"))
	assert.Equal(t, 1, strings.Count(prompt, "grade B+."))
	assert.True(t, strings.HasPrefix(prompt, "Based on the student data provided, highlight the strengths and positive attributes of "+name+".\n"))
	assert.Contains(t, prompt, "- Astronomy: Performance Not specified, Grades: 77, Average: 77\n")
}

func TestBuildPrompt_invalidType(t *testing.T) {
	_, err := BuildPrompt(student.Summarize(student.Student{Name: "Alan"}), Type("bogus"))
	assert.True(t, core.IsValidationError(err))
}

func TestParseType(t *testing.T) {
	for _, s := range []string{"improvement", " strengths ", "parentConference"} {
		typ, err := ParseType(s)
		assert.NoError(t, err)
		assert.True(t, typ.IsValid())
	}
	for _, s := range []string{"", "Strengths", "parent_conference"} {
		_, err := ParseType(s)
		require.Error(t, err)
		vErr, ok := err.(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, "feedback_type", vErr.Fields[0].Field)
	}
}
