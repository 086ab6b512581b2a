// Package router is a declarative route table: each entry pairs a path
// with an optional guard evaluated once per request. Guards return an
// explicit allow / redirect-to result; views never redirect themselves.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tqpictures/studio/internal/auth"
	"github.com/tqpictures/studio/models"
)

// Result is a guard's verdict.
type Result struct {
	Allow      bool
	RedirectTo string
}

func Allow() Result                 { return Result{Allow: true} }
func RedirectTo(path string) Result { return Result{RedirectTo: path} }

// Guard decides whether the (possibly nil) signed-in profile may reach a
// route.
type Guard func(p *models.Profile) Result

type Route struct {
	Method  string
	Path    string
	Guard   Guard
	Handler http.HandlerFunc
}

// Mount registers the table on r, wrapping guarded routes.
func Mount(r chi.Router, routes []Route) {
	for _, rt := range routes {
		h := rt.Handler
		if rt.Guard != nil {
			h = guarded(rt.Guard, h)
		}
		r.Method(rt.Method, rt.Path, h)
	}
}

func guarded(g Guard, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if res := g(auth.ProfileFrom(r.Context())); !res.Allow {
			http.Redirect(w, r, res.RedirectTo, http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}
