package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates
var viewsFS embed.FS

var pagesTmpl *template.Template

// loadTemplatesFromFS loads page templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	pagesTmpl, err = template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads the embedded crag page templates. Call during startup
// before serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

var errNotLoaded = errors.New("crag templates not loaded: call views.LoadTemplates during startup")

func RenderIndex(w io.Writer, data *IndexData) error {
	if pagesTmpl == nil {
		return errNotLoaded
	}
	return pagesTmpl.ExecuteTemplate(w, "index.html", data)
}

func RenderCrag(w io.Writer, data *CragPageData) error {
	if pagesTmpl == nil {
		return errNotLoaded
	}
	return pagesTmpl.ExecuteTemplate(w, "crag.html", data)
}

// RenderRoutesPartial executes only the route list fragment into w.
// Use for HTMX fragment refresh.
func RenderRoutesPartial(w io.Writer, data *RouteListData) error {
	if pagesTmpl == nil {
		return errNotLoaded
	}
	return pagesTmpl.ExecuteTemplate(w, "partials/routes.html", data)
}

func RenderNotFound(w io.Writer, message string) error {
	if pagesTmpl == nil {
		return errNotLoaded
	}
	return pagesTmpl.ExecuteTemplate(w, "not_found.html", message)
}

// RenderError renders the page shown when loading or rendering fails.
func RenderError(w io.Writer, message string) error {
	if pagesTmpl == nil {
		return errNotLoaded
	}
	return pagesTmpl.ExecuteTemplate(w, "error.html", message)
}

// FallbackErrorHTML is written when even the error page cannot be rendered.
const FallbackErrorHTML = `<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><title>Something went wrong</title></head>
<body><h1>Something went wrong</h1><p class="page-error">Please try again later.</p></body></html>
`
