package storyboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/eringen/storyboard/internal/domain"
	"github.com/eringen/storyboard/internal/service"
)

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func TestUnknownAction(t *testing.T) {
	f := newFixture(t)
	code, out := f.action("dropTables", nil)
	if code != http.StatusNotFound || out.Error == nil || out.Error.Code != http.StatusNotFound {
		t.Fatalf("code = %d, body = %+v", code, out)
	}
}

func TestActionRejectsMalformedInput(t *testing.T) {
	f := newFixture(t)
	_, cookie := f.signIn("writer@example.com")
	req := strings.NewReader("{not json")
	code, out := f.rawAction("saveSlug", req, cookie)
	if code != http.StatusBadRequest {
		t.Fatalf("code = %d", code)
	}
	if !strings.HasPrefix(out.Error.Message, "Invalid input") {
		t.Errorf("message = %q", out.Error.Message)
	}
}

func TestGetSlugsHidesDrafts(t *testing.T) {
	f := newFixture(t)
	admin, adminCookie := f.signIn("admin@example.com")
	f.publish(admin, "published-story", "A published story about mountain trails")
	draft := service.SlugInput{CanonicalURL: "draft-story", CategoryID: f.category.ID, AuthorID: admin.ID}
	if _, err := f.app.Services.Slugs.SaveSlug(context.Background(), draft); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	code, out := f.action("getSlugs", map[string]bool{"includeUnpublished": true})
	if code != http.StatusOK {
		t.Fatalf("anonymous code = %d, error = %+v", code, out.Error)
	}
	if slugs := decode[[]service.SlugDTO](t, out.Data); len(slugs) != 1 || slugs[0].CanonicalURL != "published-story" {
		t.Errorf("anonymous slugs = %+v", slugs)
	}

	_, out = f.action("getSlugs", map[string]bool{"includeUnpublished": true}, adminCookie)
	if slugs := decode[[]service.SlugDTO](t, out.Data); len(slugs) != 2 {
		t.Errorf("admin slugs = %d, want 2", len(slugs))
	}
}

func TestSaveSlugRequiresSignIn(t *testing.T) {
	f := newFixture(t)
	code, out := f.action("saveSlug", publishableInput(f.category.ID, "story", "A title that is long enough to publish"))
	if code != http.StatusUnauthorized {
		t.Fatalf("code = %d", code)
	}
	if out.Error.Message != domain.AuthenticationErrorMessage {
		t.Errorf("message = %q", out.Error.Message)
	}
}

func TestSaveSlugUsesSessionAuthor(t *testing.T) {
	f := newFixture(t)
	user, cookie := f.signIn("writer@example.com")
	in := publishableInput(f.category.ID, "writer-story", "A title that is long enough to publish")
	code, out := f.action("saveSlug", in, cookie)
	if code != http.StatusOK {
		t.Fatalf("code = %d, error = %+v", code, out.Error)
	}
	saved := decode[service.SlugDTO](t, out.Data)
	if saved.AuthorID != user.ID || saved.ID == 0 {
		t.Errorf("saved = %+v", saved)
	}

	_, out = f.action("getSlugs", nil)
	if slugs := decode[[]service.SlugDTO](t, out.Data); len(slugs) != 1 {
		t.Errorf("cache not invalidated, slugs = %d", len(slugs))
	}
}

func TestSaveSlugValidation(t *testing.T) {
	f := newFixture(t)
	_, cookie := f.signIn("writer@example.com")
	in := publishableInput(f.category.ID, "Not A Slug", "Too short")
	code, out := f.action("saveSlug", in, cookie)
	if code != http.StatusBadRequest {
		t.Fatalf("code = %d", code)
	}
	if out.Error.Fields["canonicalUrl"] == "" || out.Error.Fields["title"] == "" {
		t.Errorf("fields = %v", out.Error.Fields)
	}
}

func TestSaveSlugDuplicateConflicts(t *testing.T) {
	f := newFixture(t)
	user, cookie := f.signIn("writer@example.com")
	f.publish(user, "taken", "A title that is long enough to publish")
	code, out := f.action("saveSlug", publishableInput(f.category.ID, "taken", "Another title long enough to publish"), cookie)
	if code != http.StatusConflict {
		t.Fatalf("code = %d, error = %+v", code, out.Error)
	}
}

func TestUpdateSlugOwnership(t *testing.T) {
	f := newFixture(t)
	owner, _ := f.signIn("owner@example.com")
	_, strangerCookie := f.signIn("stranger@example.com")
	_, adminCookie := f.signIn("admin@example.com")
	story := f.publish(owner, "owned", "A title that is long enough to publish")

	in := publishableInput(f.category.ID, "owned", "An edited title that is still long enough")
	in.ID = story.ID

	code, _ := f.action("updateSlug", in, strangerCookie)
	if code != http.StatusForbidden {
		t.Fatalf("stranger code = %d", code)
	}

	code, out := f.action("updateSlug", in, adminCookie)
	if code != http.StatusOK {
		t.Fatalf("admin code = %d, error = %+v", code, out.Error)
	}
	updated := decode[service.SlugDTO](t, out.Data)
	if updated.AuthorID != owner.ID {
		t.Errorf("author changed to %q", updated.AuthorID)
	}
	if updated.TitleOr("") != "An edited title that is still long enough" {
		t.Errorf("title = %q", updated.TitleOr(""))
	}
}

func TestUpdateSlugUnknownID(t *testing.T) {
	f := newFixture(t)
	_, cookie := f.signIn("writer@example.com")
	in := publishableInput(f.category.ID, "ghost", "A title that is long enough to publish")
	in.ID = 999
	code, out := f.action("updateSlug", in, cookie)
	if code != http.StatusNotFound || out.Error.Message != "Not found" {
		t.Fatalf("code = %d, error = %+v", code, out.Error)
	}
}

func TestGetSlugByIDHidesDraftsFromOthers(t *testing.T) {
	f := newFixture(t)
	author, authorCookie := f.signIn("writer@example.com")
	_, strangerCookie := f.signIn("stranger@example.com")
	_, adminCookie := f.signIn("admin@example.com")
	draft := service.SlugInput{CanonicalURL: "secret-draft", CategoryID: f.category.ID, AuthorID: author.ID}
	saved, err := f.app.Services.Slugs.SaveSlug(context.Background(), draft)
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}
	in := map[string]int64{"id": saved.ID}

	code, out := f.action("getSlugById", in)
	if code != http.StatusNotFound || out.Error.Message != "Not found" {
		t.Fatalf("anonymous code = %d, error = %+v", code, out.Error)
	}
	if code, _ := f.action("getSlugById", in, strangerCookie); code != http.StatusNotFound {
		t.Errorf("stranger code = %d", code)
	}
	for name, cookie := range map[string]*http.Cookie{"author": authorCookie, "admin": adminCookie} {
		code, out := f.action("getSlugById", in, cookie)
		if code != http.StatusOK {
			t.Fatalf("%s code = %d, error = %+v", name, code, out.Error)
		}
		if got := decode[service.SlugDTO](t, out.Data); got.CanonicalURL != "secret-draft" {
			t.Errorf("%s got %+v", name, got)
		}
	}
}

func TestGetSlugByIDServesPublishedToAnyone(t *testing.T) {
	f := newFixture(t)
	author, _ := f.signIn("writer@example.com")
	story := f.publish(author, "open-story", "A published story about mountain trails")

	code, out := f.action("getSlugById", map[string]int64{"id": story.ID})
	if code != http.StatusOK {
		t.Fatalf("code = %d, error = %+v", code, out.Error)
	}
}

func TestDeleteSlug(t *testing.T) {
	f := newFixture(t)
	owner, ownerCookie := f.signIn("owner@example.com")
	_, strangerCookie := f.signIn("stranger@example.com")
	story := f.publish(owner, "short-lived", "A title that is long enough to publish")
	in := map[string]int64{"id": story.ID}

	if code, _ := f.action("deleteSlug", in); code != http.StatusUnauthorized {
		t.Fatalf("anonymous code = %d", code)
	}
	if code, _ := f.action("deleteSlug", in, strangerCookie); code != http.StatusForbidden {
		t.Fatalf("stranger code = %d", code)
	}
	code, out := f.action("deleteSlug", in, ownerCookie)
	if code != http.StatusOK {
		t.Fatalf("owner code = %d, error = %+v", code, out.Error)
	}
	if rec := f.get("/story/short-lived/"); rec.Code != http.StatusNotFound {
		t.Errorf("story page after delete = %d", rec.Code)
	}
	if code, _ := f.action("deleteSlug", in, ownerCookie); code != http.StatusNotFound {
		t.Errorf("second delete code = %d", code)
	}
}

func TestGetUserByEmailIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	_, userCookie := f.signIn("writer@example.com")
	_, adminCookie := f.signIn("admin@example.com")

	code, _ := f.action("getUserByEmail", map[string]string{"email": "writer@example.com"}, userCookie)
	if code != http.StatusForbidden {
		t.Fatalf("non-admin code = %d", code)
	}

	code, out := f.action("getUserByEmail", map[string]string{"email": "writer@example.com"}, adminCookie)
	if code != http.StatusOK {
		t.Fatalf("admin code = %d, error = %+v", code, out.Error)
	}
	if u := decode[*service.UserDTO](t, out.Data); u == nil || u.Email != "writer@example.com" {
		t.Errorf("user = %+v", u)
	}

	_, out = f.action("getUserByEmail", map[string]string{"email": "nobody@example.com"}, adminCookie)
	if string(out.Data) != "null" {
		t.Errorf("missing user data = %s, want null", out.Data)
	}
}

func TestCreateCategoryRefreshesList(t *testing.T) {
	f := newFixture(t)
	_, adminCookie := f.signIn("admin@example.com")

	_, out := f.action("listCategories", nil)
	if cats := decode[[]service.CategoryDTO](t, out.Data); len(cats) != 1 {
		t.Fatalf("categories = %+v", cats)
	}
	code, out := f.action("createCategory", service.CategoryInput{Name: "Food", CanonicalURL: "food"}, adminCookie)
	if code != http.StatusOK {
		t.Fatalf("code = %d, error = %+v", code, out.Error)
	}
	_, out = f.action("listCategories", nil)
	if cats := decode[[]service.CategoryDTO](t, out.Data); len(cats) != 2 {
		t.Errorf("categories after create = %+v", cats)
	}
}

func TestSubmitFeedbackIsRateLimited(t *testing.T) {
	f := newFixture(t)
	in := service.FeedbackInput{Comment: "Lovely site", Name: "Reader", Email: "reader@example.com"}

	for i := 0; i < 5; i++ {
		if code, out := f.action("submitFeedback", in); code != http.StatusOK {
			t.Fatalf("request %d: code = %d, error = %+v", i+1, code, out.Error)
		}
	}
	code, out := f.action("submitFeedback", in)
	if code != http.StatusTooManyRequests || out.Error.Message != "Too many requests" {
		t.Fatalf("sixth request: code = %d, error = %+v", code, out.Error)
	}

	f.clock.advance(11 * time.Second)
	if code, _ := f.action("submitFeedback", in); code != http.StatusOK {
		t.Fatalf("after window: code = %d", code)
	}
}

func TestSubmitFeedbackRateLimitedThroughRedis(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter, err := NewRedisLimiter("redis://"+srv.Addr(), "", 5, 10*time.Second)
	if err != nil {
		t.Fatalf("NewRedisLimiter: %v", err)
	}
	defer limiter.Close()
	f := newFixture(t, WithLimiter(limiter))
	in := service.FeedbackInput{Comment: "Lovely site", Name: "Reader", Email: "reader@example.com"}

	for i := 0; i < 5; i++ {
		if code, out := f.action("submitFeedback", in); code != http.StatusOK {
			t.Fatalf("request %d: code = %d, error = %+v", i+1, code, out.Error)
		}
	}
	if code, _ := f.action("submitFeedback", in); code != http.StatusTooManyRequests {
		t.Fatalf("sixth request: code = %d", code)
	}
	f.clock.advance(11 * time.Second)
	if code, _ := f.action("submitFeedback", in); code != http.StatusOK {
		t.Fatalf("after window: code = %d", code)
	}

	srv.Close()
	if code, _ := f.action("submitFeedback", in); code != http.StatusInternalServerError {
		t.Fatalf("store down: code = %d", code)
	}
}

func TestFeedbackModeration(t *testing.T) {
	f := newFixture(t)
	reader, readerCookie := f.signIn("reader@example.com")
	_, adminCookie := f.signIn("admin@example.com")

	_, out := f.action("submitFeedback", service.FeedbackInput{Comment: "Great", Name: "Reader", Email: "reader@example.com"}, readerCookie)
	fb := decode[service.FeedbackDTO](t, out.Data)
	if fb.UserID == nil || *fb.UserID != reader.ID {
		t.Errorf("feedback user = %v, want %s", fb.UserID, reader.ID)
	}

	if code, _ := f.action("listFeedback", nil, readerCookie); code != http.StatusForbidden {
		t.Fatalf("reader listFeedback code = %d", code)
	}
	_, out = f.action("listFeedback", map[string]bool{"approvedOnly": true}, adminCookie)
	if list := decode[[]service.FeedbackDTO](t, out.Data); len(list) != 0 {
		t.Fatalf("approved before approval = %+v", list)
	}

	if code, out := f.action("approveFeedback", map[string]int64{"id": fb.ID}, adminCookie); code != http.StatusOK {
		t.Fatalf("approve code = %d, error = %+v", code, out.Error)
	}
	_, out = f.action("listFeedback", map[string]bool{"approvedOnly": true}, adminCookie)
	if list := decode[[]service.FeedbackDTO](t, out.Data); len(list) != 1 || !list[0].Approved {
		t.Errorf("approved list = %+v", list)
	}
}
