package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ripoti/core/feedback"
	"github.com/trezcool/ripoti/core/student"
	inmemdb "github.com/trezcool/ripoti/storage/database/inmem"
	"github.com/trezcool/ripoti/tests"
)

var (
	stdRepo   student.Repository
	generator *testutil.FakeGenerator
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	db := inmemdb.Open()
	stdRepo = inmemdb.NewStudentRepository(db)
	generator = &testutil.FakeGenerator{Text: "Keep up the good work."}

	out := new(bytes.Buffer)
	return &commandLine{
		stdSvc: student.NewService(stdRepo),
		fbSvc:  feedback.NewService(stdRepo, inmemdb.NewFeedbackRepository(db), generator, testutil.Logger{}, testutil.NewConfig()),
		out:    out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		require.Error(t, err)
		assert.Equal(t, tt.wantErrStr, err.Error())
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	t.Run("in-memory store", func(t *testing.T) {
		assert.Equal(t, errNoDatabase, cli.run([]string{"admin", "migrate", "up"}))
	})

	cli.db = sqlx.NewDb(nil, "postgres")
	gooseRunFunc = func(_ context.Context, _ *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_guardians", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_feedback(t *testing.T) {
	cli, out := setup(t)

	ada := testutil.CreateStudent(t, stdRepo, "Ada Lovelace", "S-001", student.GradeA)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"feedback"}, wantErr: errHelp},
		{name: "no type", args: []string{"feedback", "-student", ada.ID}, wantErr: errHelp},
		{name: "unknown type", args: []string{"feedback", "-student", ada.ID, "-type", "lol"}, wantErrStr: "invalid feedback type"},
		{name: "unknown student", args: []string{"feedback", "-student", "lol", "-type", "strengths"}, wantErr: student.ErrNotFound},
		{name: "generate", args: []string{"feedback", "-student", ada.ID, "-type", "strengths"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
	require.Len(t, generator.Prompts(), 1)
	assert.Contains(t, out.String(), "Keep up the good work.")

	t.Run("model failure", func(t *testing.T) {
		generator.Err = errors.New("quota exceeded")
		defer func() { generator.Err = nil }()
		err := cli.run([]string{"admin", "feedback", "-student", ada.ID, "-type", "improvement"})
		assert.Equal(t, feedback.ErrGenerationFailed, err)
	})

	t.Run("history", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "history", "-student", ada.ID}))
		assert.Contains(t, out.String(), "[Fake Model]")

		other := testutil.CreateStudent(t, stdRepo, "Alan Turing", "S-002", "")
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "history", "-student", other.ID}))
		assert.Equal(t, "no feedback yet\n", out.String())

		assert.Equal(t, errHelp, cli.run([]string{"admin", "history"}))
		assert.Equal(t, student.ErrNotFound, cli.run([]string{"admin", "history", "-student", "lol"}))
	})
}

func Test_commandLine_export(t *testing.T) {
	cli, out := setup(t)

	ada := testutil.CreateStudent(t, stdRepo, "Ada Lovelace", "S-001", student.GradeA)
	testutil.CreateSubject(t, stdRepo, ada, "Mathematics", "Excellent", 80, 90)
	testutil.CreateNote(t, stdRepo, ada, "Participates actively")

	assert.Equal(t, errHelp, cli.run([]string{"admin", "export"}))
	assert.Equal(t, student.ErrNotFound, cli.run([]string{"admin", "export", "-student", "lol"}))

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "export", "-student", ada.ID}))

	var exp student.Export
	require.NoError(t, json.Unmarshal(out.Bytes(), &exp))
	assert.Equal(t, student.NewExport(testutil.GetStudent(t, stdRepo, ada.ID)), exp)
	assert.Equal(t, 85.0, exp.Subjects[0].AverageGrade.Float64)
	assert.Empty(t, generator.Prompts())
}
