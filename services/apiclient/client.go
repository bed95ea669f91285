// Package apiclient implements workflow.Backend over the coursework HTTP API.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/workflow"
)

type Client struct {
	baseURL string
	rest    *rest.Client
}

var _ workflow.Backend = (*Client)(nil) // interface compliance check

// New returns a Client for the API rooted at baseURL (eg. http://localhost:5000/api).
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

func NewFromConfig(conf *core.Config) *Client {
	return New(conf.Client.APIBaseURL, conf.Client.Timeout)
}

type errorBody struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind"`
	Fields map[string]string `json:"fields"`
}

// do sends one request and decodes a 2xx JSON response into out (if not nil).
func (c *Client) do(ctx context.Context, method rest.Method, path, token string, query map[string]string, in, out interface{}) error {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: query,
	}
	if token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return core.WrapWorkflowError(core.KindNetworkFailure, err, "could not reach the server")
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return decodeError(res)
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err = json.Unmarshal([]byte(res.Body), out); err != nil {
		return core.WrapWorkflowError(core.KindNetworkFailure, err, "unexpected response from the server")
	}
	return nil
}

// decodeError classifies a failed response by its serialized kind, never by its message.
func decodeError(res *rest.Response) error {
	var body errorBody
	_ = json.Unmarshal([]byte(res.Body), &body)
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(res.StatusCode)
	}

	if res.StatusCode == http.StatusUnauthorized {
		return core.NewWorkflowError(core.KindNotAuthenticated, msg)
	}
	if kind, ok := core.ParseErrorKind(body.Kind); ok {
		return core.NewWorkflowError(kind, msg)
	}
	if len(body.Fields) > 0 {
		names := make([]string, 0, len(body.Fields))
		for name := range body.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		fields := make([]core.FieldError, 0, len(names))
		for _, name := range names {
			fields = append(fields, core.FieldError{Field: name, Error: body.Fields[name]})
		}
		return core.NewValidationError(errors.New(msg), fields...)
	}
	return core.WrapWorkflowError(core.KindNetworkFailure, fmt.Errorf("status %d", res.StatusCode), msg)
}

func (c *Client) Authenticate(ctx context.Context, email, password string) (session.Identity, error) {
	var id session.Identity
	in := map[string]string{"email": email, "password": password}
	err := c.do(ctx, rest.Post, "/auth/login", "", nil, in, &id)
	return id, err
}

func (c *Client) ListAssignments(ctx context.Context, token string, status assignment.Status) ([]assignment.Assignment, error) {
	var query map[string]string
	if status != "" {
		query = map[string]string{"status": string(status)}
	}
	var list []assignment.Assignment
	err := c.do(ctx, rest.Get, "/assignments", token, query, nil, &list)
	return list, err
}

func (c *Client) CreateAssignment(ctx context.Context, token string, f assignment.Fields) (assignment.Assignment, error) {
	var a assignment.Assignment
	err := c.do(ctx, rest.Post, "/assignments", token, nil, f, &a)
	return a, err
}

func (c *Client) UpdateAssignmentStatus(ctx context.Context, token, id string, status assignment.Status) (assignment.Assignment, error) {
	var a assignment.Assignment
	in := map[string]string{"status": string(status)}
	err := c.do(ctx, rest.Put, "/assignments/"+url.PathEscape(id)+"/status", token, nil, in, &a)
	return a, err
}

func (c *Client) UpdateAssignmentFields(ctx context.Context, token, id string, f assignment.Fields) (assignment.Assignment, error) {
	var a assignment.Assignment
	err := c.do(ctx, rest.Put, "/assignments/"+url.PathEscape(id), token, nil, f, &a)
	return a, err
}

func (c *Client) DeleteAssignment(ctx context.Context, token, id string) error {
	return c.do(ctx, rest.Delete, "/assignments/"+url.PathEscape(id), token, nil, nil, nil)
}

func (c *Client) ListSubmissions(ctx context.Context, token, assignmentID string) ([]submission.Submission, error) {
	var subs []submission.Submission
	err := c.do(ctx, rest.Get, "/submissions/"+url.PathEscape(assignmentID), token, nil, nil, &subs)
	return subs, err
}

func (c *Client) CreateSubmission(ctx context.Context, token, assignmentID, answer string) (submission.Submission, error) {
	var sub submission.Submission
	in := map[string]string{"assignmentId": assignmentID, "answer": answer}
	err := c.do(ctx, rest.Post, "/submissions", token, nil, in, &sub)
	return sub, err
}

func (c *Client) SetSubmissionStatus(ctx context.Context, token, id string, status submission.Status) (submission.Submission, error) {
	var sub submission.Submission
	in := map[string]string{"status": string(status)}
	err := c.do(ctx, rest.Put, "/submissions/"+url.PathEscape(id)+"/status", token, nil, in, &sub)
	return sub, err
}

func (c *Client) MarkSubmissionReviewed(ctx context.Context, token, id string) (submission.Submission, error) {
	var sub submission.Submission
	err := c.do(ctx, rest.Put, "/submissions/"+url.PathEscape(id)+"/review", token, nil, nil, &sub)
	return sub, err
}
