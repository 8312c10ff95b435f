package storyboard

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/storyboard/internal/auth"
	"github.com/eringen/storyboard/views"
)

const signInFailed = "Sign-in failed. Please try again."

func (a *App) renderSignIn(c echo.Context, code int, next, msg string) error {
	return RenderStatus(c, code, a.Views.SignIn(views.SignInPage{
		Page:  a.page(c, views.PageMeta{Title: "Sign in"}),
		Next:  next,
		Error: msg,
	}))
}

func (a *App) handleSignInPage(c echo.Context) error {
	next := safeRedirect(c.QueryParam("next"))
	if _, ok := CurrentUser(c); ok {
		return c.Redirect(http.StatusSeeOther, next)
	}
	return a.renderSignIn(c, http.StatusOK, next, "")
}

func (a *App) handleGoogleSignIn(c echo.Context) error {
	target, err := a.Services.Auth.BeginSignIn(c.Request().Context(), safeRedirect(c.QueryParam("next")))
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func (a *App) handleGoogleCallback(c echo.Context) error {
	if reason := c.QueryParam("error"); reason != "" {
		a.Logger.Info("google sign-in declined", zap.String("reason", reason))
		return a.renderSignIn(c, http.StatusBadRequest, "/", signInFailed)
	}
	res, err := a.Services.Auth.CompleteSignIn(c.Request().Context(), c.QueryParam("state"), c.QueryParam("code"), auth.RequestMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if errors.Is(err, auth.ErrInvalidState) {
		return a.renderSignIn(c, http.StatusBadRequest, "/", "Your sign-in link expired. Please try again.")
	}
	if err != nil {
		a.Logger.Error("complete sign-in", zap.Error(err))
		return a.renderSignIn(c, http.StatusBadGateway, "/", signInFailed)
	}
	if err := setSessionToken(c, res.Token); err != nil {
		return err
	}
	a.Logger.Info("signed in", zap.String("user", res.User.ID))
	return c.Redirect(http.StatusSeeOther, safeRedirect(res.RedirectTo))
}

func (a *App) handleSignOut(c echo.Context) error {
	if token := sessionToken(c); token != "" {
		if err := a.Services.Auth.SignOut(c.Request().Context(), token); err != nil {
			a.Logger.Warn("sign out", zap.Error(err))
		}
	}
	if err := clearSessionToken(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
