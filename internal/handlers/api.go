package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tqpictures/studio/internal/auth"
)

// APIToken exchanges credentials for a bearer token.
func (h *Handlers) APIToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apiError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.profiles.ByEmail(r.Context(), in.Email)
	if err != nil || !auth.CheckPassword(p.PasswordHash, in.Password) {
		apiError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := auth.CreateAccessToken(h.cfg.JWTSecret, p.ID, p.Email, p.IsAdmin, h.cfg.JWTTTL)
	if err != nil {
		h.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token":      token,
		"expires_in": int(h.cfg.JWTTTL.Seconds()),
	})
}

func (h *Handlers) apiAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			apiError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := auth.ParseValidate(h.cfg.JWTSecret, token)
		if err != nil {
			apiError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		p, err := h.profiles.ByID(r.Context(), claims.Sub)
		if err != nil {
			apiError(w, http.StatusUnauthorized, "unknown subject")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithProfile(r.Context(), p)))
	})
}

func (h *Handlers) APIMe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(auth.ProfileFrom(r.Context()))
}

func (h *Handlers) APIBookings(w http.ResponseWriter, r *http.Request) {
	p := auth.ProfileFrom(r.Context())
	bookings, err := h.bookings.ListForProfile(r.Context(), p.ID)
	if err != nil {
		apiError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"bookings": bookings})
}

func (h *Handlers) APIImages(w http.ResponseWriter, r *http.Request) {
	p := auth.ProfileFrom(r.Context())
	images, err := h.gallery.Assigned(r.Context(), p.ID)
	if err != nil {
		apiError(w, http.StatusInternalServerError, "failed to list images")
		return
	}
	type item struct {
		ID        string `json:"id"`
		FileName  string `json:"file_name"`
		URL       string `json:"url"`
		ThumbURL  string `json:"thumb_url,omitempty"`
		CreatedAt string `json:"created_at"`
	}
	out := make([]item, 0, len(images))
	for _, img := range images {
		it := item{ID: img.ID, FileName: img.FileName, CreatedAt: img.CreatedAt.Format("2006-01-02T15:04:05Z07:00")}
		if links, err := h.gallery.SignedLinks(r.Context(), img); err == nil {
			it.URL = links.URL
			it.ThumbURL = links.ThumbURL
		}
		out = append(out, it)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"images": out})
}
