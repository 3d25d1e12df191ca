package logsvc

import (
	"bytes"
	"errors"
	"log"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/student"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	l := NewRollbarLogger(log.New(buf, "", 0), &core.Config{Env: "TEST"})
	l.Enable(false)
	return l
}

func TestRollbarLogger_prepare(t *testing.T) {
	l := newTestLogger(new(bytes.Buffer))
	err := errors.New("boom")
	req := httptest.NewRequest("GET", "/v1/students", nil)
	std := student.Student{ID: "abc", StudentID: "S-001"}

	got := l.prepare("failed", []interface{}{err, req, map[string]interface{}{"type": "strengths"}, std})

	assert.Equal(t, "failed", got[0])
	assert.Equal(t, err, got[1])
	assert.Equal(t, req, got[2])
	assert.Equal(t, map[string]interface{}{
		"type":    "strengths",
		"student": map[string]string{"id": "abc", "student_id": "S-001"},
	}, got[3])
	assert.Len(t, got, 4)
}

func TestRollbarLogger_print(t *testing.T) {
	buf := new(bytes.Buffer)
	l := newTestLogger(buf)

	l.Warn("slow request", httptest.NewRequest("POST", "/v1/students", nil), map[string]interface{}{"ms": 1200})
	assert.Equal(t, "[WARN] slow request\nPOST /v1/students\nmap[ms:1200]\n", buf.String())
}

func TestRollbarLogger_printStudent(t *testing.T) {
	buf := new(bytes.Buffer)
	l := newTestLogger(buf)

	std := student.Student{ID: "abc", StudentID: "S-001", Name: "Ada Lovelace"}
	l.Error("saving feedback", errors.New("disk full"), std)
	assert.Equal(t, "[ERROR] saving feedback\ndisk full\nstudent abc (S-001)\n", buf.String())
}
