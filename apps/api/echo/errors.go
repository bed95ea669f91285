package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/session"
)

var kindStatusCodes = map[core.ErrorKind]int{
	core.KindNotAuthenticated:  http.StatusUnauthorized,
	core.KindRoleMismatch:      http.StatusForbidden,
	core.KindNotOwner:          http.StatusForbidden,
	core.KindNotFound:          http.StatusNotFound,
	core.KindInvalidTransition: http.StatusConflict,
	core.KindEditNotAllowed:    http.StatusConflict,
	core.KindDeleteNotAllowed:  http.StatusConflict,
	core.KindAssignmentNotOpen: http.StatusConflict,
	core.KindEmptyAnswer:       http.StatusBadRequest,
	core.KindAlreadySubmitted:  http.StatusConflict,
	core.KindNetworkFailure:    http.StatusBadGateway,
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Kind   core.ErrorKind    `json:"kind,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code int
			body ErrorResponse
		)

		switch origErr := errors.Cause(err).(type) {
		case *core.WorkflowError:
			code = kindStatusCodes[origErr.Kind]
			if code == 0 {
				code = http.StatusBadRequest
			}
			body = ErrorResponse{Error: origErr.Error(), Kind: origErr.Kind}
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			body.Error = http.StatusText(code)
			if m, ok := origErr.Message.(string); ok {
				body.Error = m
			}
			if origErr == middleware.ErrJWTMissing || code == http.StatusUnauthorized {
				code = http.StatusUnauthorized
				body.Kind = core.KindNotAuthenticated
			}
		case validator.ValidationErrors:
			body.Fields = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				body.Fields[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			body.Error = "invalid input"
		case *core.ValidationError:
			if origErr.Fields != nil {
				body.Fields = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					body.Fields[fErr.Field] = fErr.Error
				}
			}
			code = http.StatusBadRequest
			body.Error = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			body.Error = msg

			var id session.Identity
			if sess, cErr := contextIdentity(ctx); cErr == nil {
				id = *sess
			}
			logger.Error(msg, errors.Wrap(err, msg), id)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			body.Error = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
