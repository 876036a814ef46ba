package httpapi

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"koperasihub/internal/backend"
	"koperasihub/internal/gate"
	"koperasihub/internal/models"
)

var pages = template.Must(template.New("pages").Parse(`
{{define "head"}}<!doctype html><html lang="id"><head><meta charset="utf-8"><title>{{.}} | KoperasiHub</title></head><body>{{end}}
{{define "foot"}}</body></html>{{end}}

{{define "home"}}{{template "head" "Beranda"}}
<h1>KoperasiHub</h1>
{{if .Dashboard}}<p><a href="{{.Dashboard}}">Dashboard</a> · <a href="/logout">Keluar</a></p>
{{else}}<p><a href="/login">Masuk</a> · <a href="/register">Daftar</a></p>{{end}}
{{template "foot"}}{{end}}

{{define "login"}}{{template "head" "Masuk"}}
<h1>Masuk</h1>
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
<form method="post" action="/login">
<label>Email <input type="email" name="email" value="{{.Email}}" required></label>
<label>Kata sandi <input type="password" name="password" required></label>
<button type="submit">Masuk</button>
</form>
<p><a href="/register">Daftar</a></p>
{{template "foot"}}{{end}}

{{define "register"}}{{template "head" "Daftar"}}
<h1>Daftar</h1>
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
<form method="post" action="/register">
<label>Nama <input name="name" value="{{.Name}}" required></label>
<label>Email <input type="email" name="email" value="{{.Email}}" required></label>
<label>Telepon <input name="phone" value="{{.Phone}}"></label>
<label>Kata sandi <input type="password" name="password" required></label>
<label>Peran <select name="role">{{range .Roles}}<option value="{{.}}">{{.}}</option>{{end}}</select></label>
<input type="hidden" name="captcha_token" value="">
<button type="submit">Daftar</button>
</form>
{{template "foot"}}{{end}}

{{define "dashboard"}}{{template "head" "Dashboard"}}
<h1>Dashboard {{.Role}}</h1>
<p>{{.Path}}</p>
<p><a href="/logout">Keluar</a></p>
{{template "foot"}}{{end}}

{{define "denied"}}{{template "head" "Akses ditolak"}}
<h1>Akses ditolak</h1>
<p>Halaman ini hanya untuk peran {{.Required}}.</p>
<p><a href="{{.Home}}">Kembali ke dashboard Anda</a></p>
{{template "foot"}}{{end}}

{{define "storefront"}}{{template "head" .Name}}
<h1>{{.Name}}</h1>
{{if .Description}}<p>{{.Description}}</p>{{end}}
{{template "foot"}}{{end}}

{{define "error"}}{{template "head" .Title}}
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
{{template "foot"}}{{end}}
`))

type formPage struct {
	Error string
	Name  string
	Email string
	Phone string
	Roles []string
}

type errorPage struct {
	Title   string
	Message string
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "render page", "page", name, "error", err)
	}
}

func (h *Handler) renderNotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "error", errorPage{Title: "Tidak ditemukan", Message: "Halaman tidak ditemukan."})
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.renderNotFound(w, r)
		return
	}
	data := struct{ Dashboard string }{}
	if sess := currentSession(r); sess.Authenticated() {
		data.Dashboard = sess.Role.DashboardPath()
	}
	h.render(w, r, http.StatusOK, "home", data)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, r, http.StatusOK, "login", formPage{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			h.render(w, r, http.StatusBadRequest, "login", formPage{Error: "Formulir tidak valid."})
			return
		}
		email := strings.TrimSpace(r.PostForm.Get("email"))
		password := r.PostForm.Get("password")
		if email == "" || password == "" {
			h.render(w, r, http.StatusBadRequest, "login", formPage{Email: email, Error: "Email dan kata sandi wajib diisi."})
			return
		}
		result, err := h.backend.Login(r.Context(), email, password)
		if err != nil {
			status, message := h.pageError(r, err)
			h.render(w, r, status, "login", formPage{Email: email, Error: message})
			return
		}
		resp := h.establish(w, result)
		http.Redirect(w, r, resp.Redirect, http.StatusSeeOther)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	roles := registrableRoles()
	switch r.Method {
	case http.MethodGet:
		h.render(w, r, http.StatusOK, "register", formPage{Roles: roles})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			h.render(w, r, http.StatusBadRequest, "register", formPage{Roles: roles, Error: "Formulir tidak valid."})
			return
		}
		req := registerRequest{
			Name:         r.PostForm.Get("name"),
			Email:        r.PostForm.Get("email"),
			Password:     r.PostForm.Get("password"),
			Phone:        r.PostForm.Get("phone"),
			Role:         r.PostForm.Get("role"),
			CaptchaToken: r.PostForm.Get("captcha_token"),
		}
		page := formPage{Roles: roles, Name: req.Name, Email: req.Email, Phone: req.Phone}
		input, msg := registerInput(req)
		if msg != "" {
			page.Error = msg
			h.render(w, r, http.StatusBadRequest, "register", page)
			return
		}
		result, err := h.backend.Register(r.Context(), input)
		if err != nil {
			status, message := h.pageError(r, err)
			page.Error = message
			h.render(w, r, status, "register", page)
			return
		}
		resp := h.establish(w, result)
		http.Redirect(w, r, resp.Redirect, http.StatusSeeOther)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func registrableRoles() []string {
	var roles []string
	for _, role := range models.AllRoles() {
		if role != models.RoleSuperAdmin {
			roles = append(roles, role.String())
		}
	}
	return roles
}

func (h *Handler) pageError(r *http.Request, err error) (int, string) {
	var apiErr *backend.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status, apiErr.Message
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusBadGateway, "Layanan sedang tidak tersedia. Coba lagi nanti."
	default:
		h.logger.ErrorContext(r.Context(), "backend call failed", "path", r.URL.Path, "error", err)
		return http.StatusInternalServerError, "Terjadi kesalahan."
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	role, ok := models.RoleForPath(r.URL.Path)
	if !ok {
		h.renderNotFound(w, r)
		return
	}
	h.requireSection(w, r, func() {
		h.render(w, r, http.StatusOK, "dashboard", struct {
			Role string
			Path string
		}{Role: role.String(), Path: r.URL.Path})
	})
}

// requireSection renders the access denied panel instead of the section when
// the held identity belongs to another role.
func (h *Handler) requireSection(w http.ResponseWriter, r *http.Request, render func()) {
	state, ok := stateFromRequest(w, r)
	if !ok {
		return
	}
	user, hydrated := state.Auth.User()
	check := gate.CheckSection(r.URL.Path, user, hydrated)
	if !check.Allowed {
		h.render(w, r, http.StatusForbidden, "denied", struct {
			Required string
			Home     string
		}{Required: check.Required.String(), Home: check.Home})
		return
	}
	render()
}

func (h *Handler) handleStorefront(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	slug := strings.Trim(strings.TrimPrefix(r.URL.Path, gate.StorePrefix), "/")
	if slug == "" || strings.Contains(slug, "/") {
		h.renderNotFound(w, r)
		return
	}
	store, err := h.backend.Storefront(r.Context(), slug)
	if err != nil {
		var apiErr *backend.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			h.renderNotFound(w, r)
			return
		}
		status, message := h.pageError(r, err)
		h.render(w, r, status, "error", errorPage{Title: "Toko tidak tersedia", Message: message})
		return
	}
	if store.Name == "" {
		store.Name = slug
	}
	h.render(w, r, http.StatusOK, "storefront", store)
}
