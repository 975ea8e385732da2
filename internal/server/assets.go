package server

import (
	"bytes"
	"io/fs"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

var mediaTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
}

type asset struct {
	mediaType string
	body      []byte
}

// assets serves files minified once at startup.
type assets struct {
	files   map[string]asset
	modTime time.Time
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

func loadAssets(fsys fs.FS) (*assets, error) {
	m := newMinifier()
	a := &assets{files: make(map[string]asset), modTime: time.Now()}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		mt, ok := mediaTypes[path.Ext(p)]
		if ok {
			if body, err = m.Bytes(mt, body); err != nil {
				return errors.Wrapf(err, "minifying %s", p)
			}
		}
		a.files["/"+p] = asset{mediaType: mt, body: body}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "loading status page")
	}
	if _, ok := a.files["/index.html"]; !ok {
		return nil, errors.New("status page has no index.html")
	}
	return a, nil
}

func (a *assets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	if strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	f, ok := a.files[p]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if f.mediaType != "" {
		w.Header().Set("Content-Type", f.mediaType+"; charset=utf-8")
	}
	http.ServeContent(w, r, path.Base(p), a.modTime, bytes.NewReader(f.body))
}
