package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/workflow"
)

const dueLayout = "2006-01-02"

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	svc *workflow.Service
	out io.Writer
}

// newCommandLine restores the persisted session, if any, and wires the workflow.Service.
func newCommandLine(backend workflow.Backend, store session.Store, logger core.Logger, out io.Writer) (*commandLine, error) {
	sess := session.NewContext(store)
	if err := sess.Restore(); err != nil {
		return nil, err
	}
	svc, err := workflow.NewService(backend, sess, workflow.NewStore(), logger)
	if err != nil {
		return nil, err
	}
	return &commandLine{svc: svc, out: out}, nil
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL - log in (password prompted)")
	fmt.Fprintln(cli.out, "  logout")
	fmt.Fprintln(cli.out, "  whoami")
	fmt.Fprintln(cli.out, "  list [-status draft|published|completed]")
	fmt.Fprintln(cli.out, "  create -title TITLE -description TEXT -due YYYY-MM-DD")
	fmt.Fprintln(cli.out, "  edit [-title TITLE] [-description TEXT] [-due YYYY-MM-DD] ASSIGNMENT_ID")
	fmt.Fprintln(cli.out, "  publish|unpublish|complete|reopen|delete ASSIGNMENT_ID")
	fmt.Fprintln(cli.out, "  submissions ASSIGNMENT_ID")
	fmt.Fprintln(cli.out, "  redo|review ASSIGNMENT_ID SUBMISSION_ID")
	fmt.Fprintln(cli.out, "  submit ASSIGNMENT_ID ANSWER...")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginEmail := loginCmd.String("email", "", "The email you were registered with.")

	listCmd := flag.NewFlagSet("list", flag.ContinueOnError)
	listStatus := listCmd.String("status", "", "Only list assignments in this status.")

	createCmd := flag.NewFlagSet("create", flag.ContinueOnError)
	createTitle := createCmd.String("title", "", "The assignment's title.")
	createDesc := createCmd.String("description", "", "What students are asked to do.")
	createDue := createCmd.String("due", "", "The due date, as YYYY-MM-DD.")

	editCmd := flag.NewFlagSet("edit", flag.ContinueOnError)
	editTitle := editCmd.String("title", "", "The new title.")
	editDesc := editCmd.String("description", "", "The new description.")
	editDue := editCmd.String("due", "", "The new due date, as YYYY-MM-DD.")

	switch cmd, rest := args[1], args[2:]; cmd {
	case "login":
		if err := loginCmd.Parse(rest); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(cli.out)
		if err != nil {
			return err
		}
		return cli.login(ctx, *loginEmail, pwd)
	case "logout":
		return cli.svc.Logout()
	case "whoami":
		return cli.whoami()
	case "list":
		if err := listCmd.Parse(rest); err != nil {
			return err
		}
		status, ok := assignment.ParseStatus(*listStatus)
		if !ok {
			return fmt.Errorf("%q: no such status", *listStatus)
		}
		return cli.list(ctx, status)
	case "create":
		if err := createCmd.Parse(rest); err != nil {
			return err
		}
		if *createTitle == "" || *createDesc == "" || *createDue == "" {
			createCmd.Usage()
			return errHelp
		}
		due, err := parseDue(*createDue)
		if err != nil {
			return err
		}
		return cli.create(ctx, assignment.Fields{Title: *createTitle, Description: *createDesc, DueDate: due})
	case "edit":
		if err := editCmd.Parse(rest); err != nil {
			return err
		}
		if editCmd.NArg() != 1 {
			editCmd.Usage()
			return errHelp
		}
		f := assignment.Fields{Title: *editTitle, Description: *editDesc}
		if *editDue != "" {
			due, err := parseDue(*editDue)
			if err != nil {
				return err
			}
			f.DueDate = due
		}
		return cli.edit(ctx, editCmd.Arg(0), f)
	case "publish", "unpublish", "complete", "reopen", "delete", "submissions":
		if len(rest) != 1 {
			return fmt.Errorf("%s must be of form: classroom %s ASSIGNMENT_ID", cmd, cmd)
		}
		if cmd == "delete" {
			return cli.delete(ctx, rest[0])
		}
		if cmd == "submissions" {
			return cli.submissions(ctx, rest[0])
		}
		return cli.changeStatus(ctx, cmd, rest[0])
	case "redo", "review":
		if len(rest) != 2 {
			return fmt.Errorf("%s must be of form: classroom %s ASSIGNMENT_ID SUBMISSION_ID", cmd, cmd)
		}
		return cli.reviewSubmission(ctx, cmd, rest[0], rest[1])
	case "submit":
		if len(rest) < 1 {
			return errors.New("submit must be of form: classroom submit ASSIGNMENT_ID ANSWER...")
		}
		return cli.submit(ctx, rest[0], strings.Join(rest[1:], " "))
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword(out io.Writer) (string, error) {
	fmt.Fprint(out, "Password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func parseDue(value string) (time.Time, error) {
	due, err := time.Parse(dueLayout, value)
	if err != nil {
		if due, err = time.Parse(time.RFC3339, value); err != nil {
			return time.Time{}, fmt.Errorf("due date must be of form YYYY-MM-DD (got '%s')", value)
		}
	}
	return due.UTC(), nil
}
