package storyboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eringen/storyboard/editor"
	"github.com/eringen/storyboard/internal/domain"
	"github.com/eringen/storyboard/internal/service"
	"github.com/eringen/storyboard/views"
)

const editorInvalid = "Please fix the highlighted fields before saving."

func (a *App) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	slugs, err := a.Services.Slugs.GetSlugs(ctx, true)
	if err != nil {
		return err
	}
	feedback, err := a.Services.Feedback.ListFeedback(ctx, false)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Dashboard(views.DashboardPage{
		Page:     a.page(c, views.PageMeta{Title: "Dashboard"}),
		Slugs:    slugs,
		Feedback: feedback,
		Message:  c.QueryParam("msg"),
	}))
}

func (a *App) renderEditor(c echo.Context, code int, st editor.State, msg string) error {
	categories, err := a.Cache.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	title := "New story"
	if st.Form.ID > 0 {
		title = "Edit story"
	}
	return RenderStatus(c, code, a.Views.Editor(views.EditorPage{
		Page:       a.page(c, views.PageMeta{Title: title}),
		State:      st,
		Categories: categories,
		Message:    msg,
	}))
}

func (a *App) handleEditorNew(c echo.Context) error {
	return a.renderEditor(c, http.StatusOK, editor.Evaluate(editor.Form{}, a.host), "")
}

func (a *App) handleEditorEdit(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.ErrNotFound
	}
	slug, err := a.Services.Slugs.GetSlugByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return a.renderEditor(c, http.StatusOK, editor.Evaluate(service.FormFromSlug(slug), a.host), c.QueryParam("msg"))
}

// handleEditorDerive returns the evaluated form and the re-rendered panel
// so the page can update without a reload.
func (a *App) handleEditorDerive(c echo.Context) error {
	var f editor.Form
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	st := editor.Evaluate(f, a.host)
	panel, err := views.RenderString(c.Request().Context(), a.Views.EditorPanel(st))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"state": st, "panel": panel})
}

func (a *App) handleEditorSave(c echo.Context) error {
	var f editor.Form
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	st := editor.Evaluate(f, a.host)
	if !st.Valid {
		return a.renderEditor(c, http.StatusUnprocessableEntity, st, editorInvalid)
	}
	user, _ := CurrentUser(c)
	in := service.InputFromForm(st.Form)
	ctx := c.Request().Context()

	var (
		saved domain.Slug
		err   error
	)
	if in.ID > 0 {
		saved, err = a.updateOwnedSlug(ctx, user, in)
	} else {
		in.AuthorID = user.ID
		saved, err = a.Services.Slugs.SaveSlug(ctx, in)
		if err == nil {
			a.Cache.Invalidate()
		}
	}

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return a.renderEditor(c, http.StatusUnprocessableEntity, st, ve.Error())
	case errors.Is(err, domain.ErrConstraintViolation):
		return a.renderEditor(c, http.StatusConflict, st, "A story with this slug already exists.")
	case err != nil:
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/editor/"+strconv.FormatInt(saved.ID, 10)+"/?msg=Saved")
}
