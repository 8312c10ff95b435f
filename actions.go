package storyboard

import (
	"context"
	"fmt"

	"github.com/eringen/storyboard/internal/domain"
	"github.com/eringen/storyboard/internal/service"
)

type idInput struct {
	ID int64 `json:"id"`
}

func (in idInput) validate() error {
	if in.ID <= 0 {
		return &domain.ValidationError{Fields: map[string]string{"id": "must be a positive integer"}}
	}
	return nil
}

func (a *App) defaultActions() []Action {
	return []Action{
		{Name: "getSlugs", Run: a.getSlugs},
		{Name: "getSlugById", Run: a.getSlugByID},
		{Name: "saveSlug", Auth: true, Run: a.saveSlug},
		{Name: "updateSlug", Auth: true, Run: a.updateSlug},
		{Name: "deleteSlug", Auth: true, Run: a.deleteSlug},
		{Name: "getUserByEmail", Admin: true, Run: a.getUserByEmail},
		{Name: "listCategories", Run: a.listCategories},
		{Name: "createCategory", Admin: true, Run: a.createCategory},
		{Name: "submitFeedback", RateLimit: true, Run: a.submitFeedback},
		{Name: "listFeedback", Admin: true, Run: a.listFeedback},
		{Name: "approveFeedback", Admin: true, Run: a.approveFeedback},
	}
}

// getSlugs lists published slugs. Admins may ask for drafts as well.
func (a *App) getSlugs(ctx context.Context, call *Call) (any, error) {
	var in struct {
		IncludeUnpublished bool `json:"includeUnpublished"`
	}
	if err := call.Bind(&in); err != nil {
		return nil, err
	}
	if in.IncludeUnpublished && call.Session != nil && call.Session.User.IsAdmin() {
		return a.Services.Slugs.GetSlugs(ctx, true)
	}
	return a.Cache.Published(ctx, 0)
}

func (a *App) getSlugByID(ctx context.Context, call *Call) (any, error) {
	var in idInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	sl, err := a.Services.Slugs.GetSlugByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if !sl.Published && (call.Session == nil || !canEdit(call.Session.User, sl.AuthorID)) {
		return nil, fmt.Errorf("get slug %d: %w", in.ID, domain.ErrNotFound)
	}
	return sl, nil
}

// canEdit reports whether user wrote the slug or is an admin.
func canEdit(user domain.User, authorID string) bool {
	return user.ID == authorID || user.IsAdmin()
}

func (a *App) saveSlug(ctx context.Context, call *Call) (any, error) {
	var in service.SlugInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}
	in.AuthorID = call.User.ID
	sl, err := a.Services.Slugs.SaveSlug(ctx, in)
	if err != nil {
		return nil, err
	}
	a.Cache.Invalidate()
	return service.NewSlugDTO(sl), nil
}

// updateSlug keeps the stored author. Only the author or an admin may
// change a slug.
func (a *App) updateSlug(ctx context.Context, call *Call) (any, error) {
	var in service.SlugInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}
	sl, err := a.updateOwnedSlug(ctx, call.User, in)
	if err != nil {
		return nil, err
	}
	return service.NewSlugDTO(sl), nil
}

func (a *App) updateOwnedSlug(ctx context.Context, user domain.User, in service.SlugInput) (domain.Slug, error) {
	if err := (idInput{ID: in.ID}).validate(); err != nil {
		return domain.Slug{}, err
	}
	existing, err := a.Services.Slugs.GetSlugByID(ctx, in.ID)
	if err != nil {
		return domain.Slug{}, err
	}
	if !canEdit(user, existing.AuthorID) {
		return domain.Slug{}, domain.NewForbiddenError()
	}
	in.AuthorID = existing.AuthorID
	sl, err := a.Services.Slugs.UpdateSlug(ctx, in)
	if err != nil {
		return domain.Slug{}, err
	}
	a.Cache.Invalidate()
	return sl, nil
}

func (a *App) deleteSlug(ctx context.Context, call *Call) (any, error) {
	var in idInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	existing, err := a.Services.Slugs.GetSlugByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if !canEdit(call.User, existing.AuthorID) {
		return nil, domain.NewForbiddenError()
	}
	if _, err := a.Services.Slugs.DeleteSlug(ctx, in.ID); err != nil {
		return nil, err
	}
	a.Cache.Invalidate()
	return in, nil
}

func (a *App) getUserByEmail(ctx context.Context, call *Call) (any, error) {
	var in struct {
		Email string `json:"email"`
	}
	if err := call.Bind(&in); err != nil {
		return nil, err
	}
	if in.Email == "" {
		return nil, &domain.ValidationError{Fields: map[string]string{"email": "is required"}}
	}
	return a.Services.Users.GetUserByEmail(ctx, in.Email)
}

func (a *App) listCategories(ctx context.Context, call *Call) (any, error) {
	return a.Cache.Categories(ctx)
}

func (a *App) createCategory(ctx context.Context, call *Call) (any, error) {
	var in service.CategoryInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}
	cat, err := a.Services.Categories.CreateCategory(ctx, in)
	if err != nil {
		return nil, err
	}
	a.Cache.Invalidate()
	return cat, nil
}

// submitFeedback accepts anonymous feedback and links it to the reader when
// a session is present.
func (a *App) submitFeedback(ctx context.Context, call *Call) (any, error) {
	var in service.FeedbackInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}
	var userID *string
	if call.Session != nil {
		id := call.Session.User.ID
		userID = &id
	}
	return a.Services.Feedback.SubmitFeedback(ctx, in, userID)
}

func (a *App) listFeedback(ctx context.Context, call *Call) (any, error) {
	var in struct {
		ApprovedOnly bool `json:"approvedOnly"`
	}
	if err := call.Bind(&in); err != nil {
		return nil, err
	}
	return a.Services.Feedback.ListFeedback(ctx, in.ApprovedOnly)
}

func (a *App) approveFeedback(ctx context.Context, call *Call) (any, error) {
	var in idInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := a.Services.Feedback.ApproveFeedback(ctx, in.ID); err != nil {
		return nil, err
	}
	return in, nil
}
