// Package router layers named routes, prefix groups and mounts over chi.
//
//	r := router.New()
//	api := r.Group("/admin", middleware.Authenticate(tokens))
//	api.Get("/overview", "admin.overview", h)
//	r.URL("admin.overview", nil) // "/admin/overview"
package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

type Middleware func(http.Handler) http.Handler

// RouteInfo describes one registered method/pattern pair.
type RouteInfo struct {
	Method  string
	Pattern string
}

type Router struct {
	mux chi.Router

	mu    sync.RWMutex
	names map[string]string
}

// Group registers routes below a prefix behind a shared middleware list.
type Group struct {
	r           *Router
	prefix      string
	middlewares []Middleware
}

func New() *Router {
	return &Router{mux: chi.NewRouter(), names: map[string]string{}}
}

// Handler exposes the underlying chi mux. Mounting it keeps its routes
// visible to Routes on the parent.
func (r *Router) Handler() http.Handler { return r.mux }

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) { r.mux.ServeHTTP(w, req) }

// Use appends global middleware. chi requires this before any route.
func (r *Router) Use(middlewares ...Middleware) {
	for _, mw := range middlewares {
		r.mux.Use(mw)
	}
}

func (r *Router) Group(prefix string, middlewares ...Middleware) *Group {
	return &Group{r: r, prefix: clean(prefix), middlewares: middlewares}
}

func (r *Router) Get(path, name string, h http.HandlerFunc, middlewares ...Middleware) {
	r.Handle(http.MethodGet, path, name, h, middlewares...)
}

func (r *Router) Post(path, name string, h http.HandlerFunc, middlewares ...Middleware) {
	r.Handle(http.MethodPost, path, name, h, middlewares...)
}

// Handle registers h for method and path. An empty name leaves the route
// unnamed.
func (r *Router) Handle(method, path, name string, h http.Handler, middlewares ...Middleware) {
	pattern := clean(path)
	r.mux.Method(method, pattern, wrap(h, middlewares))
	r.name(name, pattern)
}

// Mount dispatches every method below prefix to h.
func (r *Router) Mount(prefix string, h http.Handler) {
	r.mux.Mount(clean(prefix), h)
}

// NotFound sets the handler for paths no route matches.
func (r *Router) NotFound(h http.HandlerFunc) { r.mux.NotFound(h) }

// MethodNotAllowed sets the handler for a known path with an unknown method.
func (r *Router) MethodNotAllowed(h http.HandlerFunc) { r.mux.MethodNotAllowed(h) }

// Path returns the pattern registered under name.
func (r *Router) Path(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.names[name]
	return p, ok
}

// URL fills the {params} of a named route.
func (r *Router) URL(name string, params map[string]string) (string, error) {
	p, ok := r.Path(name)
	if !ok {
		return "", fmt.Errorf("router: no route named %q", name)
	}
	for k, v := range params {
		p = strings.ReplaceAll(p, "{"+k+"}", v)
	}
	if strings.Contains(p, "{") {
		return "", fmt.Errorf("router: missing parameters for %q", name)
	}
	return p, nil
}

// Routes lists every registered route, mounted sub-routers included, sorted
// by pattern then method.
func (r *Router) Routes() ([]RouteInfo, error) {
	var out []RouteInfo
	err := chi.Walk(r.mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = strings.ReplaceAll(route, "/*/", "/")
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		out = append(out, RouteInfo{Method: method, Pattern: route})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Method < out[j].Method
	})
	return out, nil
}

func (r *Router) name(name, pattern string) {
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[name] = pattern
}

// Group nests a prefix and appends middleware after the parent's.
func (g *Group) Group(prefix string, middlewares ...Middleware) *Group {
	return &Group{
		r:           g.r,
		prefix:      clean(g.prefix, prefix),
		middlewares: append(append([]Middleware(nil), g.middlewares...), middlewares...),
	}
}

func (g *Group) Get(path, name string, h http.HandlerFunc, middlewares ...Middleware) {
	g.Handle(http.MethodGet, path, name, h, middlewares...)
}

func (g *Group) Post(path, name string, h http.HandlerFunc, middlewares ...Middleware) {
	g.Handle(http.MethodPost, path, name, h, middlewares...)
}

func (g *Group) Handle(method, path, name string, h http.Handler, middlewares ...Middleware) {
	all := append(append([]Middleware(nil), g.middlewares...), middlewares...)
	g.r.Handle(method, clean(g.prefix, path), name, h, all...)
}

// wrap applies middlewares so the first one is outermost.
func wrap(h http.Handler, middlewares []Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// clean joins path parts into "/a/b" form; no parts, or only slashes, is "/".
func clean(parts ...string) string {
	var segs []string
	for _, p := range parts {
		if t := strings.Trim(p, "/"); t != "" {
			segs = append(segs, t)
		}
	}
	return "/" + strings.Join(segs, "/")
}
