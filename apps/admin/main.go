package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/feedback"
	"github.com/trezcool/ripoti/core/student"
	"github.com/trezcool/ripoti/services/llm"
	logsvc "github.com/trezcool/ripoti/services/logger"
	"github.com/trezcool/ripoti/storage/database"
	inmemdb "github.com/trezcool/ripoti/storage/database/inmem"
	sqlxrepos "github.com/trezcool/ripoti/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	ctx := context.Background()
	cli := commandLine{out: os.Stdout}

	// set up DB & repositories
	var (
		stdRepo student.Repository
		fbRepo  feedback.Repository
	)
	if conf.Database.InMemory {
		db := inmemdb.Open()
		stdRepo, fbRepo = inmemdb.NewStudentRepository(db), inmemdb.NewFeedbackRepository(db)
	} else {
		if err = database.CreateIfNotExist(ctx, conf); err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		var db *sqlx.DB
		if db, err = database.Open(ctx, conf); err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		cli.db = db
		stdRepo, fbRepo = sqlxrepos.NewStudentRepository(db), sqlxrepos.NewFeedbackRepository(db)
	}

	// the generator is optional here: migrate and export work without a credential
	var generator feedback.Generator = unavailableGenerator{}
	if gc, err := llm.NewGeminiClient(ctx, conf); err == nil {
		generator = gc
	} else if err != llm.ErrMissingAPIKey {
		logger.Fatal(fmt.Sprintf("setting up feedback generator: %v", err), err)
	}

	cli.stdSvc = student.NewService(stdRepo)
	cli.fbSvc = feedback.NewService(stdRepo, fbRepo, generator, logger, conf)

	err = cli.run(os.Args)
	if cli.db != nil {
		_ = cli.db.Close()
	}
	logger.Close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

// unavailableGenerator stands in for the model client when GEMINI_API_KEY is not set.
type unavailableGenerator struct{}

func (unavailableGenerator) Name() string { return llm.GeminiName }

func (unavailableGenerator) Generate(context.Context, string) (string, error) {
	return "", llm.ErrMissingAPIKey
}
