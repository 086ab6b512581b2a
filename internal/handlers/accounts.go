package handlers

import (
	"errors"
	"net/http"

	"github.com/markbates/goth/gothic"
	"gorm.io/gorm"

	"github.com/tqpictures/studio/internal/auth"
	"github.com/tqpictures/studio/models"
)

type loginPage struct {
	basePage
	Email         string
	GoogleEnabled bool
}

type signupPage struct {
	basePage
	Email    string
	FullName string
	Phone    string
}

func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login.html", loginPage{basePage: h.base(w, r), GoogleEnabled: h.cfg.GoogleEnabled})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	p, err := h.profiles.ByEmail(r.Context(), email)
	if err != nil || !auth.CheckPassword(p.PasswordHash, password) {
		page := loginPage{basePage: h.base(w, r), Email: email, GoogleEnabled: h.cfg.GoogleEnabled}
		page.Error = "Invalid email or password"
		h.render(w, http.StatusUnauthorized, "login.html", page)
		return
	}
	if err := h.sessions.SignIn(w, r, p.ID); err != nil {
		h.internalError(w, err)
		return
	}
	if p.IsAdmin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handlers) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "signup.html", signupPage{basePage: h.base(w, r)})
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	page := signupPage{
		basePage: h.base(w, r),
		Email:    r.FormValue("email"),
		FullName: r.FormValue("full_name"),
		Phone:    r.FormValue("phone"),
	}
	password := r.FormValue("password")

	if page.Email == "" || page.FullName == "" || password == "" {
		page.Error = "Name, email and password are required"
		h.render(w, http.StatusBadRequest, "signup.html", page)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.internalError(w, err)
		return
	}
	p := &models.Profile{
		Email:        page.Email,
		PasswordHash: hash,
		FullName:     page.FullName,
		Phone:        page.Phone,
	}
	if err := h.profiles.Create(r.Context(), p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			page.Error = "An account with this email already exists"
			h.render(w, http.StatusConflict, "signup.html", page)
			return
		}
		h.internalError(w, err)
		return
	}
	if err := h.sessions.SignIn(w, r, p.ID); err != nil {
		h.internalError(w, err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// AdminLoginForm and AdminLogin authenticate against the same profiles
// table as the regular login; the only difference is the admin flag
// requirement. There are no standalone admin credentials.
func (h *Handlers) AdminLoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "admin_login.html", loginPage{basePage: h.base(w, r)})
}

func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	p, err := h.profiles.ByEmail(r.Context(), email)
	if err != nil || !auth.CheckPassword(p.PasswordHash, password) {
		page := loginPage{basePage: h.base(w, r), Email: email}
		page.Error = "Invalid admin credentials"
		h.render(w, http.StatusUnauthorized, "admin_login.html", page)
		return
	}
	if !p.IsAdmin {
		page := loginPage{basePage: h.base(w, r), Email: email}
		page.Error = "This account does not have admin access"
		h.render(w, http.StatusForbidden, "admin_login.html", page)
		return
	}
	if err := h.sessions.SignIn(w, r, p.ID); err != nil {
		h.internalError(w, err)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(w, r); err != nil {
		h.log.Error("logout", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) OAuthBegin(w http.ResponseWriter, r *http.Request) {
	if gu, err := gothic.CompleteUserAuth(w, r); err == nil {
		h.finishOAuth(w, r, gu.Email, gu.Name)
		return
	}
	gothic.BeginAuthHandler(w, r)
}

func (h *Handlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	gu, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		h.log.Error("oauth callback", "error", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.finishOAuth(w, r, gu.Email, gu.Name)
}

func (h *Handlers) finishOAuth(w http.ResponseWriter, r *http.Request, email, name string) {
	p := &models.Profile{Email: email, FullName: name}
	if err := h.profiles.UpsertByEmail(r.Context(), p); err != nil {
		h.internalError(w, err)
		return
	}
	if err := h.sessions.SignIn(w, r, p.ID); err != nil {
		h.internalError(w, err)
		return
	}
	if p.IsAdmin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
