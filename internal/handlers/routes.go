package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Routes wires every endpoint onto a fresh mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// route registers fn for methods and answers every other method on the
	// same path with a JSON 405.
	route := func(path string, fn http.Handler, methods ...string) {
		for _, method := range methods {
			mux.Handle(method+" "+path, fn)
		}
		mux.HandleFunc(path, h.methodNotAllowed(methods))
	}

	getPost := []string{http.MethodGet, http.MethodPost}
	route("/{$}", http.HandlerFunc(h.Index), getPost...)
	route("/eval-front", h.EvalSample("front"), getPost...)
	route("/eval-back", h.EvalSample("back"), getPost...)
	route("/eval-kitchen", h.EvalSample("kitchen"), getPost...)
	route("/live", http.HandlerFunc(h.Live), getPost...)
	route("/analyze", http.HandlerFunc(h.Analyze), http.MethodPost)
	route("/health", http.HandlerFunc(h.Health), http.MethodGet)
	route("/static/{file...}", http.HandlerFunc(h.Static), http.MethodGet)
	mux.HandleFunc("/", h.notFound)

	return enableCORS(mux)
}

// Index serves the landing page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := os.ReadFile(h.indexPath)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (h *Handler) methodNotAllowed(allowed []string) http.HandlerFunc {
	allow := strings.Join(allowed, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		h.writeError(w, r, statusError{http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed, use %s", r.Method, allow)})
	}
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, statusError{http.StatusNotFound, fmt.Errorf("no route for %s", r.URL.Path)})
}

// Static serves files below the static directory. Directories are reported
// as missing rather than listed.
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	f, err := http.Dir(h.staticDir).Open("/" + r.PathValue("file"))
	if err != nil {
		h.notFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		h.notFound(w, r)
		return
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
