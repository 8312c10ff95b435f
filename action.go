package storyboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/storyboard/internal/auth"
	"github.com/eringen/storyboard/internal/domain"
)

const (
	maxActionBody     = 1 << 20
	genericMessage    = "Something went wrong"
	devMessagePrefix  = "DEV ONLY ENABLED - "
	invalidInputError = "Invalid input"
)

// Action is a named operation served at POST /api/actions/<name>.
type Action struct {
	Name string
	// Auth requires a signed-in user. Admin additionally requires the
	// admin role and implies Auth.
	Auth  bool
	Admin bool
	// RateLimit applies the per-IP sliding window before anything else.
	RateLimit bool
	Run       func(ctx context.Context, call *Call) (any, error)
}

// Call is one invocation of an action.
type Call struct {
	Input   json.RawMessage
	IP      string
	Session *domain.AuthSession
	// User is set once the auth check has passed.
	User domain.User
}

// Bind decodes the call's JSON input into v. Unknown keys are ignored and
// empty input leaves v as is.
func (c *Call) Bind(v any) error {
	if len(bytes.TrimSpace(c.Input)) == 0 {
		return nil
	}
	if err := json.Unmarshal(c.Input, v); err != nil {
		return &domain.ActionError{Code: http.StatusBadRequest, Message: invalidInputError + ": " + err.Error()}
	}
	return nil
}

// ErrorBody is the error half of an action response.
type ErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ShapeError turns err into what the caller may see. Known error kinds keep
// their code and message; anything else is masked unless dev is set, in
// which case the real message is shown with a warning prefix.
func ShapeError(err error, dev bool) ErrorBody {
	var ae *domain.ActionError
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ae):
		return ErrorBody{Code: ae.Code, Message: ae.Message}
	case errors.As(err, &ve):
		return ErrorBody{Code: http.StatusBadRequest, Message: ve.Error(), Fields: ve.Fields}
	case errors.Is(err, domain.ErrNotFound):
		return ErrorBody{Code: http.StatusNotFound, Message: "Not found"}
	case errors.Is(err, domain.ErrConstraintViolation):
		return ErrorBody{Code: http.StatusConflict, Message: "Conflicts with existing data"}
	}
	if dev {
		return ErrorBody{Code: http.StatusInternalServerError, Message: devMessagePrefix + err.Error()}
	}
	return ErrorBody{Code: http.StatusInternalServerError, Message: genericMessage}
}

// RegisterAction adds act, replacing any action with the same name.
func (a *App) RegisterAction(act Action) {
	if act.Admin {
		act.Auth = true
	}
	a.actions[act.Name] = act
}

func (a *App) handleAction(c echo.Context) error {
	act, ok := a.actions[c.Param("name")]
	if !ok {
		return a.writeActionError(c, "", &domain.ActionError{Code: http.StatusNotFound, Message: "Unknown action"})
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxActionBody+1))
	if err != nil {
		return a.writeActionError(c, act.Name, err)
	}
	if len(body) > maxActionBody {
		return a.writeActionError(c, act.Name, &domain.ActionError{Code: http.StatusRequestEntityTooLarge, Message: "Request too large"})
	}

	call := &Call{Input: body, IP: c.RealIP(), Session: AuthSession(c)}
	data, err := a.runAction(c.Request().Context(), act, call)
	if err != nil {
		return a.writeActionError(c, act.Name, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

// runAction applies the action's guards in order: rate limit, sign-in,
// admin role. Only then does it run.
func (a *App) runAction(ctx context.Context, act Action, call *Call) (any, error) {
	if act.RateLimit {
		ok, err := a.Limiter.Allow(ctx, call.IP)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.NewRateLimitedError()
		}
	}
	if act.Auth {
		user, err := auth.AssertAuthenticated(call.Session)
		if err != nil {
			return nil, err
		}
		if act.Admin && !user.IsAdmin() {
			return nil, domain.NewForbiddenError()
		}
		call.User = user
	}
	return act.Run(ctx, call)
}

func (a *App) writeActionError(c echo.Context, name string, err error) error {
	body := ShapeError(err, a.Config.IsDevelopment())
	if body.Code >= http.StatusInternalServerError {
		a.Logger.Error("action failed", zap.String("action", name), zap.Error(err))
	} else {
		a.Logger.Debug("action rejected", zap.String("action", name), zap.Int("code", body.Code), zap.Error(err))
	}
	return c.JSON(body.Code, echo.Map{"error": body})
}
