package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/feedback"
	"github.com/trezcool/ripoti/storage/database"
	"github.com/trezcool/ripoti/storage/database/sqlx"
	"github.com/trezcool/ripoti/tests"
)

// openTestDB connects to the TEST database (ENV=test) and migrates it, or skips.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL tests in short mode")
	}
	conf, err := core.NewConfig()
	require.NoError(t, err)
	if conf.Env != "TEST" || conf.Database.InMemory {
		t.Skip("PostgreSQL tests need ENV=test and a reachable database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err = database.CreateIfNotExist(ctx, conf); err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	_, err = db.Exec("TRUNCATE student CASCADE")
	require.NoError(t, err)
	return db
}

func TestFeedbackRepository_QueryFeedback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	stdRepo := sqlxrepos.NewStudentRepository(db)
	repo := sqlxrepos.NewFeedbackRepository(db)

	ada := testutil.CreateStudent(t, stdRepo, "Ada Lovelace", "S-001", "")
	alan := testutil.CreateStudent(t, stdRepo, "Alan Turing", "S-002", "")

	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	ids := make([]string, 0, 4)
	for _, content := range []string{"first", "second", "third", "fourth"} {
		fb, err := repo.CreateFeedback(ctx, feedback.Feedback{StudentID: ada.ID, Content: content, GeneratedBy: "Fake Model", CreatedAt: at})
		require.NoError(t, err)
		ids = append(ids, fb.ID)
	}
	_, err := repo.CreateFeedback(ctx, feedback.Feedback{StudentID: alan.ID, Content: "other", GeneratedBy: "Fake Model", CreatedAt: at})
	require.NoError(t, err)

	history, err := repo.QueryFeedback(ctx, ada.ID)
	require.NoError(t, err)
	got := make([]string, 0, len(history))
	for _, fb := range history {
		got = append(got, fb.ID)
		assert.True(t, at.Equal(fb.CreatedAt))
	}
	assert.Equal(t, []string{ids[3], ids[2], ids[1], ids[0]}, got)

	older, err := repo.CreateFeedback(ctx, feedback.Feedback{StudentID: ada.ID, Content: "fifth", GeneratedBy: "Fake Model", CreatedAt: at.Add(-time.Hour)})
	require.NoError(t, err)
	history, err = repo.QueryFeedback(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, older.ID, history[4].ID)

	_, err = repo.CreateFeedback(ctx, feedback.Feedback{StudentID: "not-a-uuid", Content: "x", GeneratedBy: "Fake Model", CreatedAt: at})
	assert.Error(t, err)
}
