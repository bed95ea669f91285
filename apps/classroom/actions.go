package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/access"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/workflow"
)

func (cli *commandLine) login(ctx context.Context, email, pwd string) error {
	id, err := cli.svc.Login(ctx, email, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "logged in as %s (%s)\n", id.Name, id.Role)
	return nil
}

func (cli *commandLine) whoami() error {
	id := cli.svc.Session()
	if id == nil {
		return access.Authorize(nil, session.RoleStudent)
	}
	fmt.Fprintf(cli.out, "%s (%s) %s\n", id.Name, id.Role, id.ID)
	return nil
}

func (cli *commandLine) list(ctx context.Context, status assignment.Status) error {
	views, err := cli.svc.LoadAssignments(ctx, status)
	if err != nil {
		return err
	}
	cli.printAssignments(views)
	return nil
}

func (cli *commandLine) create(ctx context.Context, f assignment.Fields) error {
	v, err := cli.svc.CreateAssignment(ctx, f)
	if err != nil {
		return err
	}
	cli.printAssignments([]workflow.AssignmentView{v})
	return nil
}

func (cli *commandLine) edit(ctx context.Context, id string, f assignment.Fields) error {
	if _, err := cli.svc.LoadAssignments(ctx, ""); err != nil {
		return err
	}
	v, err := cli.svc.EditAssignment(ctx, id, f)
	if err != nil {
		return err
	}
	cli.printAssignments([]workflow.AssignmentView{v})
	return nil
}

func (cli *commandLine) changeStatus(ctx context.Context, action, id string) error {
	if _, err := cli.svc.LoadAssignments(ctx, ""); err != nil {
		return err
	}
	change := map[string]func(context.Context, string) (workflow.AssignmentView, error){
		"publish":   cli.svc.Publish,
		"unpublish": cli.svc.Unpublish,
		"complete":  cli.svc.Complete,
		"reopen":    cli.svc.Reopen,
	}[action]

	v, err := change(ctx, id)
	if err != nil {
		return err
	}
	cli.printAssignments([]workflow.AssignmentView{v})
	return nil
}

func (cli *commandLine) delete(ctx context.Context, id string) error {
	if _, err := cli.svc.LoadAssignments(ctx, ""); err != nil {
		return err
	}
	if err := cli.svc.DeleteAssignment(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "deleted %s\n", id)
	return nil
}

func (cli *commandLine) submissions(ctx context.Context, assignmentID string) error {
	if _, err := cli.svc.LoadAssignments(ctx, ""); err != nil {
		return err
	}
	views, err := cli.svc.ShowSubmissions(ctx, assignmentID)
	if err != nil {
		return err
	}
	cli.printSubmissions(views)
	return nil
}

// reviewSubmission loads the submissions of assignmentID, then applies action to one of them.
func (cli *commandLine) reviewSubmission(ctx context.Context, action, assignmentID, id string) error {
	if err := cli.submissionsQuiet(ctx, assignmentID); err != nil {
		return err
	}
	review := cli.svc.MarkReviewed
	if action == "redo" {
		review = cli.svc.RequestRedo
	}

	v, err := review(ctx, id)
	if err != nil {
		return err
	}
	cli.printSubmissions([]workflow.SubmissionView{v})
	return nil
}

func (cli *commandLine) submissionsQuiet(ctx context.Context, assignmentID string) error {
	if _, err := cli.svc.LoadAssignments(ctx, ""); err != nil {
		return err
	}
	_, err := cli.svc.ShowSubmissions(ctx, assignmentID)
	return err
}

func (cli *commandLine) submit(ctx context.Context, assignmentID, answer string) error {
	if _, err := cli.svc.LoadAssignments(ctx, ""); err != nil {
		return err
	}
	v, err := cli.svc.Submit(ctx, assignmentID, answer)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "submitted %s (%s)\n", v.ID, v.Status)
	return nil
}

// output

func (cli *commandLine) printAssignments(views []workflow.AssignmentView) {
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tDUE\tTITLE\tACTIONS")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.Status, v.DueDate.Format(dueLayout), v.Title, assignmentActions(v))
	}
	_ = w.Flush()
}

func assignmentActions(v workflow.AssignmentView) string {
	var actions []string
	for _, to := range v.Transitions {
		actions = append(actions, transitionLabel(v.Status, to))
	}
	if v.CanEdit {
		actions = append(actions, "edit")
	}
	if v.CanDelete {
		actions = append(actions, "delete")
	}
	return strings.Join(actions, ",")
}

// transitionLabel names the command that moves an assignment from one status to another.
func transitionLabel(from, to assignment.Status) string {
	switch {
	case to == assignment.StatusDraft:
		return "unpublish"
	case to == assignment.StatusCompleted:
		return "complete"
	case from == assignment.StatusCompleted:
		return "reopen"
	default:
		return "publish"
	}
}

func (cli *commandLine) printSubmissions(views []workflow.SubmissionView) {
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTUDENT\tSTATUS\tREVIEWED\tSUBMITTED\tANSWER")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			v.ID, v.StudentID, v.Status, v.IsReviewed, v.SubmittedAt.Format(dueLayout), core.CleanString(v.Answer))
	}
	_ = w.Flush()
}
