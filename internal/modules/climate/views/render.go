package views

import (
	"embed"
	"errors"
	"io"
	"io/fs"
	"text/template"
)

//go:embed templates/*.txt
var viewsFS embed.FS

var homeTmpl *template.Template

// loadTemplatesFromFS parses the text templates in dir. Tests use it to
// simulate a broken template set.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.txt")
	if err != nil {
		return err
	}
	homeTmpl = tmpl
	return nil
}

// LoadTemplates loads the embedded templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// Route is one line of the route listing.
type Route struct {
	Path string
	Hint string
}

type HomeData struct {
	Title  string
	Routes []Route
}

// RenderHome writes the plain-text route listing served at /.
func RenderHome(w io.Writer, data *HomeData) error {
	if homeTmpl == nil {
		return errors.New("home template not loaded: call views.LoadTemplates during startup")
	}
	return homeTmpl.ExecuteTemplate(w, "home.txt", data)
}
