package app

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
)

// TemplateRenderer renders pages composed from templates/layouts and
// templates/partials. Each page is compiled against its own clone of that base
// set, so pages can redefine the layout's blocks without clashing.
//
// With debug set the set is rebuilt on every render, which picks up edits made
// on disk. Otherwise it is built once by NewTemplateRenderer.
type TemplateRenderer struct {
	templates map[string]*template.Template // nil in debug mode
	fs        fs.FS
	funcMap   template.FuncMap
	debug     bool
}

var _ render.HTMLRender = (*TemplateRenderer)(nil)

// NewTemplateRenderer reads templates from fsys, which must contain a
// templates/ tree: layouts/, partials/ and one directory per page group such as
// advocates/ or errors/. The server passes web.EmbeddedFS in release mode and
// os.DirFS("web") in debug mode.
func NewTemplateRenderer(fsys fs.FS, debug bool) (*TemplateRenderer, error) {
	r := &TemplateRenderer{
		fs:      fsys,
		funcMap: templateFuncMap(),
		debug:   debug,
	}

	if !debug {
		templates, err := r.parseAllTemplates()
		if err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
		r.templates = templates
	}

	return r, nil
}

// Instance implements render.HTMLRender. name is relative to templates/, for
// example "advocates/index.html".
func (r *TemplateRenderer) Instance(name string, data any) render.Render {
	pages := r.templates
	if r.debug {
		var err error
		if pages, err = r.parseAllTemplates(); err != nil {
			return &HTMLInstance{Name: name, err: err}
		}
	}
	return &HTMLInstance{Template: pages[name], Name: name, Data: data}
}

// parseAllTemplates compiles every page keyed by its name under templates/.
func (r *TemplateRenderer) parseAllTemplates() (map[string]*template.Template, error) {
	layoutFiles, err := fs.Glob(r.fs, "templates/layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob layouts: %w", err)
	}
	partialFiles, err := fs.Glob(r.fs, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob partials: %w", err)
	}

	// Layouts and partials form the shared base set.
	base := template.New("").Funcs(r.funcMap)
	baseFiles := append(layoutFiles, partialFiles...)
	for _, f := range baseFiles {
		content, err := fs.ReadFile(r.fs, f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := base.New(f).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
	}

	pageFiles, err := r.discoverPageTemplates()
	if err != nil {
		return nil, fmt.Errorf("discover pages: %w", err)
	}

	templates := make(map[string]*template.Template, len(pageFiles))
	for _, pf := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone base for %s: %w", pf, err)
		}
		content, err := fs.ReadFile(r.fs, pf)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", pf, err)
		}
		name := strings.TrimPrefix(pf, "templates/")
		if _, err := clone.New(name).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", pf, err)
		}
		templates[name] = clone
	}

	return templates, nil
}

// discoverPageTemplates lists the page files, skipping the base set.
func (r *TemplateRenderer) discoverPageTemplates() ([]string, error) {
	var pages []string
	err := fs.WalkDir(r.fs, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		rel := strings.TrimPrefix(path, "templates/")
		if strings.HasPrefix(rel, "layouts/") || strings.HasPrefix(rel, "partials/") {
			return nil
		}
		pages = append(pages, path)
		return nil
	})
	return pages, err
}

// templateFuncMap holds the helpers available to every page.
func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		// json marshals v and returns it as template.JS so page scripts can read
		// it from a data attribute or inline script without double escaping.
		"json": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS("null")
			}
			return template.JS(b)
		},

		// formatDate formats a time.Time value as "YYYY-MM-DD HH:MM:SS".
		"formatDate": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},

		// sortState reports how column key is currently ordered: "asc", "desc"
		// or "none" when the table is sorted by another column.
		"sortState": sortState,

		// ariaSort maps sortState to the aria-sort attribute vocabulary.
		"ariaSort": func(key, sortBy, sortDir string) string {
			switch sortState(key, sortBy, sortDir) {
			case "asc":
				return "ascending"
			case "desc":
				return "descending"
			default:
				return "none"
			}
		},
	}
}

func sortState(key, sortBy, sortDir string) string {
	if key == "" || key != sortBy {
		return "none"
	}
	if sortDir == "desc" {
		return "desc"
	}
	return "asc"
}

// HTMLInstance is one pending page render.
type HTMLInstance struct {
	Template *template.Template
	Name     string
	Data     any
	err      error // debug mode parse failure
}

const htmlContentType = "text/html; charset=utf-8"

// Render executes the page into w.
func (h *HTMLInstance) Render(w http.ResponseWriter) error {
	h.WriteContentType(w)
	if h.err != nil {
		return h.err
	}
	if h.Template == nil {
		return fmt.Errorf("template %q not found", h.Name)
	}
	return h.Template.ExecuteTemplate(w, h.Name, h.Data)
}

// WriteContentType defaults Content-Type to HTML.
func (h *HTMLInstance) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{htmlContentType}
	}
}
