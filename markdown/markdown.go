// Package markdown renders story bodies to sanitized HTML.
//
// The supported dialect is deliberately small: ATX headings (#, ##, ###),
// paragraphs, bullet and numbered lists, block quotes, fenced code, rules,
// pipe tables, and inline bold, italic, code, links and images. Output of
// Render always passes through a bluemonday UGC policy.
package markdown

import (
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

var (
	reBold             = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscore   = regexp.MustCompile(`__(.+?)__`)
	reItalic           = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicUnderscore = regexp.MustCompile(`_([^_]+)_`)
	reInlineCode       = regexp.MustCompile("`([^`]+)`")
	reLink             = regexp.MustCompile(`\[(.*?)\]\((.*?)\)(\^)?`)
	reImg              = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)
	reOrdered          = regexp.MustCompile(`^(\d+)\.\s`)
)

var (
	ugc   = newPolicy()
	plain = bluemonday.StrictPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)).OnElements("pre", "code", "span", "div")
	p.AllowAttrs("loading", "fetchpriority", "decoding").OnElements("img")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	return p
}

// Render converts md to HTML and sanitizes the result.
func Render(md string) string {
	return ugc.Sanitize(ToHTML(md))
}

// Component wraps Render for use inside templ layouts.
func Component(md string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, Render(md))
		return err
	})
}

var blockBreaks = strings.NewReplacer(
	"</p>", "</p> ", "</li>", "</li> ", "</h1>", "</h1> ", "</h2>", "</h2> ",
	"</h3>", "</h3> ", "</blockquote>", "</blockquote> ", "</th>", "</th> ",
	"</td>", "</td> ", "<hr/>", " ",
)

// PlainText renders md and strips every tag, collapsing whitespace.
func PlainText(md string) string {
	text := html.UnescapeString(plain.Sanitize(blockBreaks.Replace(ToHTML(md))))
	return strings.Join(strings.Fields(text), " ")
}

type block int

const (
	blockNone block = iota
	blockPara
	blockList
	blockOrdered
	blockQuote
	blockTable
)

var closers = map[block]string{
	blockPara:    "</p>",
	blockList:    "</ul>",
	blockOrdered: "</ol>",
	blockQuote:   "</blockquote>",
}

type renderer struct {
	b         strings.Builder
	open      block
	tableBody bool
	inCode    bool
	codeLang  bool
	images    int
}

// ToHTML converts md to unsanitized HTML. Text is escaped, and link and
// image targets are restricted by SafeURL, but callers rendering to a
// browser should use Render.
func ToHTML(md string) string {
	r := &renderer{}
	for _, raw := range strings.Split(md, "\n") {
		r.line(strings.TrimRight(raw, "\r"))
	}
	r.close()
	r.closeCode()
	return r.b.String()
}

func (r *renderer) close() {
	switch r.open {
	case blockNone:
		return
	case blockTable:
		if r.tableBody {
			r.b.WriteString("</tbody>")
		}
		r.b.WriteString("</table>")
		r.tableBody = false
	default:
		r.b.WriteString(closers[r.open])
	}
	r.open = blockNone
}

// enter opens a block, closing any other. It reports whether the block is new.
func (r *renderer) enter(k block, tag string) bool {
	if r.open == k {
		return false
	}
	r.close()
	r.b.WriteString(tag)
	r.open = k
	return true
}

func (r *renderer) closeCode() {
	if !r.inCode {
		return
	}
	r.b.WriteString("</code></pre>")
	if r.codeLang {
		r.b.WriteString("</div>")
	}
	r.inCode, r.codeLang = false, false
}

func (r *renderer) inline(s string) string {
	return FormatInline(strings.TrimSpace(s), &r.images)
}

func (r *renderer) line(line string) {
	if strings.HasPrefix(line, "```") {
		if r.inCode {
			r.closeCode()
			return
		}
		r.close()
		if lang := html.EscapeString(strings.TrimSpace(line[3:])); lang != "" {
			r.codeLang = true
			r.b.WriteString(`<div class="code-block"><span class="code-lang">` + lang + `</span>`)
			r.b.WriteString(`<pre><code class="language-` + lang + `">`)
		} else {
			r.b.WriteString("<pre><code>")
		}
		r.inCode = true
		return
	}
	if r.inCode {
		r.b.WriteString(html.EscapeString(line))
		r.b.WriteString("\n")
		return
	}
	if strings.TrimSpace(line) == "" {
		r.close()
		return
	}

	switch {
	case strings.HasPrefix(line, "---"):
		r.close()
		r.b.WriteString("<hr/>")
	case strings.HasPrefix(line, "### "):
		r.heading(3, line[4:])
	case strings.HasPrefix(line, "## "):
		r.heading(2, line[3:])
	case strings.HasPrefix(line, "# "):
		r.heading(1, line[2:])
	case strings.HasPrefix(line, "|"):
		r.tableRow(line)
	case strings.HasPrefix(line, "- "):
		r.enter(blockList, "<ul>")
		r.b.WriteString("<li>" + r.inline(line[2:]) + "</li>")
	case reOrdered.MatchString(line):
		r.enter(blockOrdered, "<ol>")
		r.b.WriteString("<li>" + r.inline(reOrdered.ReplaceAllString(line, "")) + "</li>")
	case strings.HasPrefix(line, "> "):
		r.enter(blockQuote, "<blockquote>")
		r.b.WriteString(r.inline(line[2:]))
	default:
		if !r.enter(blockPara, "<p>") {
			r.b.WriteString(" ")
		}
		r.b.WriteString(r.inline(line))
	}
}

func (r *renderer) heading(level int, text string) {
	r.close()
	n := strconv.Itoa(level)
	r.b.WriteString("<h" + n + ">" + r.inline(text) + "</h" + n + ">")
}

func (r *renderer) tableRow(line string) {
	if r.enter(blockTable, "<table>") {
		r.b.WriteString("<thead><tr>")
		for _, cell := range tableCells(line) {
			r.b.WriteString("<th>" + r.inline(cell) + "</th>")
		}
		r.b.WriteString("</tr></thead>")
		return
	}
	if !r.tableBody {
		r.b.WriteString("<tbody>")
		r.tableBody = true
	}
	if isTableSeparator(line) {
		return
	}
	r.b.WriteString("<tr>")
	for _, cell := range tableCells(line) {
		r.b.WriteString("<td>" + r.inline(cell) + "</td>")
	}
	r.b.WriteString("</tr>")
}

func tableCells(line string) []string {
	parts := strings.Split(strings.Trim(strings.TrimSpace(line), "|"), "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func isTableSeparator(line string) bool {
	for _, cell := range tableCells(line) {
		if strings.Trim(cell, "-:") != "" {
			return false
		}
	}
	return true
}

// outsideTags applies fn only to text between HTML tags, so inline
// formatting never rewrites attribute values such as hrefs.
func outsideTags(s string, fn func(string) string) string {
	var b strings.Builder
	for len(s) > 0 {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			b.WriteString(fn(s))
			break
		}
		b.WriteString(fn(s[:lt]))
		gt := strings.IndexByte(s[lt:], '>')
		if gt < 0 {
			b.WriteString(s[lt:])
			break
		}
		b.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return b.String()
}

// FormatInline escapes s and applies inline formatting. imageCount tracks
// images across a document; the first one is fetched with high priority.
func FormatInline(s string, imageCount *int) string {
	out := html.EscapeString(s)
	out = reImg.ReplaceAllStringFunc(out, func(m string) string {
		match := reImg.FindStringSubmatch(m)
		src := SafeURL(match[2])
		if src == "" {
			return match[1]
		}
		*imageCount++
		load := `loading="lazy"`
		if *imageCount == 1 {
			load = `fetchpriority="high"`
		}
		return `<img ` + load + ` alt="` + match[1] + `" src="` + src + `" decoding="async"/>`
	})
	out = reLink.ReplaceAllStringFunc(out, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		attrs := ""
		if match[3] == "^" {
			attrs = ` target="_blank" rel="noopener noreferrer"`
		}
		return `<a href="` + href + `"` + attrs + `>` + match[1] + `</a>`
	})

	var codes []string
	out = reInlineCode.ReplaceAllStringFunc(out, func(m string) string {
		placeholder := "\x00C" + strconv.Itoa(len(codes)) + "\x00"
		codes = append(codes, "<code>"+reInlineCode.FindStringSubmatch(m)[1]+"</code>")
		return placeholder
	})
	out = outsideTags(out, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reBoldUnderscore.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reItalic.ReplaceAllString(seg, "<em>$1</em>")
		return reItalicUnderscore.ReplaceAllString(seg, "<em>$1</em>")
	})
	for i, code := range codes {
		out = strings.Replace(out, "\x00C"+strconv.Itoa(i)+"\x00", code, 1)
	}
	return out
}

// SafeURL returns raw escaped for an attribute, or "" unless it is
// site-relative, a fragment, or uses http, https, mailto or tel.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		if strings.HasPrefix(val, "//") {
			return ""
		}
		return html.EscapeString(val)
	}
	u, err := url.Parse(val)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	}
	return ""
}
