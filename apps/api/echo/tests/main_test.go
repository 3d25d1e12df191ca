package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	. "github.com/trezcool/ripoti/apps/api/echo"
	"github.com/trezcool/ripoti/core/feedback"
	"github.com/trezcool/ripoti/core/student"
	"github.com/trezcool/ripoti/storage/database/inmem"
	"github.com/trezcool/ripoti/tests"
)

var (
	stdRepo   student.Repository
	generator *testutil.FakeGenerator

	errStudentNotFound = httpErr{Error: "student not found"}
	errSubjectNotFound = httpErr{Error: "subject not found"}
)

func setup(t *testing.T) Server {
	// set up DB & repos
	db := inmemdb.Open()
	stdRepo = inmemdb.NewStudentRepository(db)
	fbRepo := inmemdb.NewFeedbackRepository(db)
	generator = &testutil.FakeGenerator{Text: "Ada is a diligent student."}

	// set up services
	conf := testutil.NewConfig()
	logger := testutil.Logger{}
	stdSvc := student.NewService(stdRepo)
	fbSvc := feedback.NewService(stdRepo, fbRepo, generator, logger, conf)

	// set up server
	validate, translator := testutil.NewValidatorAndTranslator()
	return NewServer(
		ServerDeps{
			Conf:        conf,
			Logger:      logger,
			StudentSvc:  stdSvc,
			FeedbackSvc: fbSvc,
			Validate:    validate,
			Translator:  translator,
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
	extra    interface{}
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode() failed: %v; body %s", err, rec.Body.String())
	}
}
