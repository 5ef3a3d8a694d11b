package tui

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/caiolrosa/req/pkg/httpclient"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + DimStyle.Render(m.title) + "\n"
}

// Printer renders command output. With colour disabled it writes plain text
// suitable for pipes.
type Printer struct {
	out   io.Writer
	color bool
	width int
}

// NewPrinter writes to out, colouring output only when out is a terminal.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, color: IsTerminal(out), width: Width(out)}
}

// NewPlainPrinter writes uncoloured output.
func NewPlainPrinter(out io.Writer) *Printer {
	return &Printer{out: out, width: 80}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

func (p *Printer) render(style interface{ Render(...string) string }, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

// Title prints a heading.
func (p *Printer) Title(s string) {
	fmt.Fprintln(p.out, p.render(TitleStyle, s))
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.out, p.render(SuccessStyle, fmt.Sprintf(format, args...)))
}

// Notice prints an informational line.
func (p *Printer) Notice(format string, args ...any) {
	fmt.Fprintln(p.out, p.render(DimStyle, NoticePrefix+fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.out, p.render(ErrorStyle, ErrorPrefix+err.Error()))
}

// List prints items one per line, marking selected.
func (p *Printer) List(items []string, selected string) {
	if len(items) == 0 {
		fmt.Fprintln(p.out, p.render(DimStyle, ItemPrefix+"(none)"))
		return
	}
	for _, item := range items {
		if item == selected {
			fmt.Fprintln(p.out, p.render(SelectedStyle, SelectedPrefix+item))
			continue
		}
		fmt.Fprintln(p.out, ItemPrefix+item)
	}
}

// KeyValues prints a mapping sorted by key.
func (p *Printer) KeyValues(values map[string]string) {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		fmt.Fprintf(p.out, "%s%s: %s\n", ItemPrefix, p.render(KeyStyle, key), values[key])
	}
}

// Document prints a JSON document, highlighted on terminals.
func (p *Printer) Document(doc string) {
	if p.color {
		fmt.Fprintln(p.out, HighlightJSON(doc, p.width))
		return
	}
	pretty, _ := PrettyJSON(doc)
	fmt.Fprintln(p.out, strings.TrimRight(pretty, "\n"))
}

// Text prints s as is.
func (p *Printer) Text(s string) {
	fmt.Fprintln(p.out, strings.TrimRight(s, "\n"))
}

// Request prints the method, URL and headers of an outgoing request.
func (p *Printer) Request(req httpclient.Request) {
	fmt.Fprintf(p.out, "%s %s\n", p.render(TitleStyle, strings.ToUpper(req.Method)), req.URL)
	headers := make(map[string]string, len(req.Headers)+1)
	for k, v := range req.Headers {
		headers[k] = v
	}
	if req.ContentType != "" {
		headers["Content-Type"] = req.ContentType
	}
	p.KeyValues(headers)
	fmt.Fprintln(p.out)
}

// Response prints the status line, optionally the headers, and the body.
func (p *Printer) Response(resp *httpclient.Response, withHeaders bool) {
	status := p.render(StatusStyle(resp.StatusCode), resp.Status)
	fmt.Fprintf(p.out, "%s %s\n", status, p.render(DimStyle, fmt.Sprintf("(%dms)", resp.Duration.Milliseconds())))
	if withHeaders {
		p.KeyValues(resp.Headers)
	}
	if resp.Body != "" {
		fmt.Fprintln(p.out)
		p.Document(resp.Body)
	}
}

// Summary prints the outcome of a repeated request.
func (p *Printer) Summary(s *httpclient.Summary) {
	p.Title("Summary")
	fmt.Fprintf(p.out, "%sTotal: %d  Succeeded: %d  Failed: %d  (%.2fs)\n",
		ItemPrefix, s.Total, s.Succeeded, s.Failed, s.Duration.Seconds())
	if s.Succeeded > 0 {
		fmt.Fprintf(p.out, "%sLatency min %v  avg %v  p50 %v  p95 %v  p99 %v  max %v\n",
			ItemPrefix, s.Min, s.Avg, s.P50, s.P95, s.P99, s.Max)
	}
	for _, code := range slices.Sorted(maps.Keys(s.StatusCodes)) {
		fmt.Fprintf(p.out, "%s%s x%d\n", ItemPrefix, p.render(StatusStyle(code), fmt.Sprint(code)), s.StatusCodes[code])
	}
	if s.Err != nil {
		p.Error(s.Err)
	}
}
