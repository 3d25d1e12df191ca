package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ripoti/core/feedback"
	"github.com/trezcool/ripoti/core/student"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sqlx.DB // nil with the in-memory store
	stdSvc *student.Service
	fbSvc  *feedback.Service
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]           - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  feedback -student ID -type TYPE  - generate and store feedback for a student")
	fmt.Fprintln(cli.out, "  history -student ID              - list a student's feedback, newest first")
	fmt.Fprintln(cli.out, "  export -student ID               - print a student's export as JSON")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	feedbackCmd := flag.NewFlagSet("feedback", flag.ContinueOnError)
	feedbackCmd.SetOutput(cli.out)
	feedbackStudent := feedbackCmd.String("student", "", "The student's record ID.")
	feedbackType := feedbackCmd.String("type", "", "One of improvement, strengths, parentConference.")

	historyCmd := flag.NewFlagSet("history", flag.ContinueOnError)
	historyCmd.SetOutput(cli.out)
	historyStudent := historyCmd.String("student", "", "The student's record ID.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportCmd.SetOutput(cli.out)
	exportStudent := exportCmd.String("student", "", "The student's record ID.")

	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	case "feedback":
		if err := feedbackCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *feedbackStudent == "" || *feedbackType == "" {
			feedbackCmd.Usage()
			return errHelp
		}
		return cli.generateFeedback(ctx, *feedbackStudent, *feedbackType)
	case "history":
		if err := historyCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *historyStudent == "" {
			historyCmd.Usage()
			return errHelp
		}
		return cli.history(ctx, *historyStudent)
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportStudent == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(ctx, *exportStudent)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) generateFeedback(ctx context.Context, studentID, typ string) error {
	t, err := feedback.ParseType(typ)
	if err != nil {
		return err
	}
	fb, err := cli.fbSvc.Generate(ctx, studentID, t)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "feedback %s (%s, %s)\n\n%s\n", fb.ID, fb.GeneratedBy, fb.CreatedAt.Format("2006-01-02 15:04:05"), fb.Content)
	return nil
}

func (cli *commandLine) history(ctx context.Context, studentID string) error {
	history, err := cli.fbSvc.History(ctx, studentID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Fprintln(cli.out, "no feedback yet")
		return nil
	}
	for _, fb := range history {
		fmt.Fprintf(cli.out, "- %s [%s] %s\n", fb.CreatedAt.Format("2006-01-02 15:04:05"), fb.GeneratedBy, fb.ID)
	}
	return nil
}

func (cli *commandLine) export(ctx context.Context, studentID string) error {
	exp, err := cli.stdSvc.Export(ctx, studentID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(exp)
}
