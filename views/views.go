// Package views holds the default page components. Pages are html/template
// files embedded at build time and exposed as templ components, so callers
// can swap any of them for their own templ code.
package views

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/storyboard/editor"
	"github.com/eringen/storyboard/markdown"
)

//go:embed templates/*.html
var templateFS embed.FS

type fieldArgs struct {
	Label string
	Name  string
	Value string
}

var funcs = template.FuncMap{
	"storyPath":     StoryPath,
	"categoryPath":  CategoryPath,
	"categoryClass": CategoryClass,
	"deref":         deref,
	"date":          formatDate,
	"markdown": func(md string) template.HTML {
		return template.HTML(markdown.Render(md))
	},
	// JSON-LD is produced by json.Marshal, which escapes <, > and &.
	"jsonld": func(s string) template.JS {
		return template.JS(s)
	},
	"field": func(label, name, value string) fieldArgs {
		return fieldArgs{Label: label, Name: name, Value: value}
	},
}

var pages = template.Must(template.New("views").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}

func Home(p HomePage) templ.Component           { return page("home", p) }
func Story(p StoryPage) templ.Component         { return page("story", p) }
func SignIn(p SignInPage) templ.Component       { return page("sign-in", p) }
func Dashboard(p DashboardPage) templ.Component { return page("dashboard", p) }
func Editor(p EditorPage) templ.Component       { return page("editor", p) }
func NotFound(p Page) templ.Component           { return page("not-found", p) }
func ServerError(p Page) templ.Component        { return page("server-error", p) }

// EditorPanel is the live score, counters, preview and errors block that
// the editor refreshes after every change.
func EditorPanel(st editor.State) templ.Component {
	return page("editor-panel", st)
}

// RenderString renders c into a string.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
