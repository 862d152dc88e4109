package html

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template renders the storefront fragments and pages. It satisfies
// echo.Renderer.
type Template struct {
	Templates *template.Template
}

// Funcs are the helpers available inside templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"currency": FormatCurrency,
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
	}
}

// New parses the embedded templates.
func New() (*Template, error) {
	t, err := template.New("storefront").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Template{Templates: t}, nil
}

// MustNew is New for program start-up.
func MustNew() *Template {
	return &Template{Templates: template.Must(template.New("storefront").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html"))}
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.Templates.ExecuteTemplate(w, name, data)
}

// String renders one named template into a string.
func (t *Template) String(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
