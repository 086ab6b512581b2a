package handlers

import "net/http"

type homePage struct{ basePage }

// Home renders the marketing page. It also serves as the fallback for
// unknown paths.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "home.html", homePage{h.base(w, r)})
}
