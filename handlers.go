package main

import (
	"database/sql"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// App carries everything the handlers need: no package-level mutable
// state, no ambient request context.
type App struct {
	db        *sql.DB
	cfg       Config
	sessions  *sessionCodec
	creds     credentials
	templates map[string]*template.Template
}

func NewApp(db *sql.DB, cfg Config) *App {
	return &App{
		db:        db,
		cfg:       cfg,
		sessions:  newSessionCodec(cfg.SecretKey),
		creds:     newCredentials(cfg.AdminUsername, cfg.AdminPassword),
		templates: loadTemplates(),
	}
}

func (a *App) routes() http.Handler {
	r := chi.NewRouter()
	if a.cfg.Debug {
		r.Use(middleware.Logger)
	}

	r.Get("/", a.Index)
	r.Get("/post/{id}", a.Show)
	r.Get("/edit/{id}", a.EditForm)
	r.Post("/edit_submit", a.EditSubmit)
	r.Get("/delete", a.Delete)
	r.Get("/create", a.CreateForm)
	r.Post("/add", a.Add)
	r.Get("/login", a.Login)
	r.Post("/login", a.Login)
	r.Get("/logout", a.Logout)
	r.Get("/feed", a.Feed)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	return r
}

// postView is a Post prepared for display: body rendered from Markdown,
// timestamp human-readable.
type postView struct {
	ID          int64
	Title       string
	Body        template.HTML
	RawBody     string
	DateCreated string
}

func newPostView(p Post) postView {
	return postView{
		ID:          p.ID,
		Title:       p.Title,
		Body:        renderMarkdown(p.Body),
		RawBody:     p.Body,
		DateCreated: time.Unix(p.DateCreated, 0).Format(time.ANSIC),
	}
}

func (a *App) postURL(id int64) string {
	return "/post/" + strconv.FormatInt(id, 10)
}

// render executes a page template, draining any pending flash notices
// into it. The drained session is written back so each notice shows
// exactly once.
func (a *App) render(w http.ResponseWriter, r *http.Request, page string, data map[string]any) {
	a.renderStatus(w, r, http.StatusOK, page, data)
}

func (a *App) renderStatus(w http.ResponseWriter, r *http.Request, code int, page string, data map[string]any) {
	sess := a.sessions.read(r)
	data["Flashes"] = sess.Flashes
	data["LoggedIn"] = sess.LoggedIn

	if len(sess.Flashes) > 0 {
		sess.Flashes = nil
		if err := a.sessions.write(w, sess); err != nil {
			log.Printf("draining flashes: %v", err)
		}
	}

	w.WriteHeader(code)
	if err := a.templates[page].ExecuteTemplate(w, "base", data); err != nil {
		log.Printf("rendering %s: %v", page, err)
	}
}

// redirectWithFlash queues a one-shot notice and redirects. The notice
// rides the signed session cookie to the next rendered page.
func (a *App) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, msg string) {
	sess := a.sessions.read(r)
	sess.Flashes = append(sess.Flashes, msg)
	if err := a.sessions.write(w, sess); err != nil {
		log.Printf("writing flash: %v", err)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (a *App) serverError(w http.ResponseWriter, err error) {
	log.Printf("internal error: %v", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid post id")
	}
	return id, nil
}

func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := listPosts(a.db)
	if err != nil {
		a.serverError(w, err)
		return
	}

	entries := make([]postView, 0, len(posts))
	for _, p := range posts {
		entries = append(entries, newPostView(p))
	}

	a.render(w, r, "index.html", map[string]any{
		"Entries": entries,
	})
}

func (a *App) Show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := getPost(a.db, id)
	if errors.Is(err, ErrPostNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}

	a.render(w, r, "post.html", map[string]any{
		"Entry":  newPostView(post),
		"PubURL": a.cfg.PublicBaseURL + a.postURL(post.ID),
	})
}

func (a *App) EditForm(w http.ResponseWriter, r *http.Request) {
	if !a.sessions.read(r).LoggedIn {
		a.redirectWithFlash(w, r, "/", "You must login before editing a post.")
		return
	}

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := getPost(a.db, id)
	if errors.Is(err, ErrPostNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}

	// The form shows the raw Markdown source, not rendered HTML.
	a.render(w, r, "edit.html", map[string]any{
		"Entry": newPostView(post),
	})
}

func (a *App) EditSubmit(w http.ResponseWriter, r *http.Request) {
	if !a.sessions.read(r).LoggedIn {
		a.redirectWithFlash(w, r, "/", "You must login before submitting an edited post.")
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	id, err := parseID(r.FormValue("id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	body := r.FormValue("body")
	if title == "" || body == "" {
		http.Error(w, "Title and body are required", http.StatusBadRequest)
		return
	}

	err = updatePost(a.db, id, title, body)
	if errors.Is(err, ErrPostNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}

	a.redirectWithFlash(w, r, a.postURL(id), "Your edit has been submitted.")
}

func (a *App) Delete(w http.ResponseWriter, r *http.Request) {
	if !a.sessions.read(r).LoggedIn {
		a.redirectWithFlash(w, r, "/", "You must login before deleting a post.")
		return
	}

	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	err = deletePost(a.db, id)
	if errors.Is(err, ErrPostNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}

	a.redirectWithFlash(w, r, "/", "Post deleted.")
}

func (a *App) CreateForm(w http.ResponseWriter, r *http.Request) {
	if !a.sessions.read(r).LoggedIn {
		a.redirectWithFlash(w, r, "/", "You must login before posting.")
		return
	}

	a.render(w, r, "create.html", map[string]any{})
}

func (a *App) Add(w http.ResponseWriter, r *http.Request) {
	// Unlike the other protected routes, an unauthenticated add is a
	// hard 401 with no flash notice.
	if !a.sessions.read(r).LoggedIn {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	body := r.FormValue("body")
	if title == "" || body == "" {
		http.Error(w, "Title and body are required", http.StatusBadRequest)
		return
	}

	if _, err := createPost(a.db, title, body, time.Now().Unix()); err != nil {
		a.serverError(w, err)
		return
	}

	a.redirectWithFlash(w, r, "/", "New post was successfully created.")
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		a.render(w, r, "login.html", map[string]any{})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	msg, ok := a.creds.check(r.FormValue("username"), r.FormValue("password"))
	if !ok {
		a.renderStatus(w, r, http.StatusUnauthorized, "login.html", map[string]any{
			"Error": msg,
		})
		return
	}

	sess := a.sessions.read(r)
	sess.LoggedIn = true
	sess.Flashes = append(sess.Flashes, "You were logged in")
	if err := a.sessions.write(w, sess); err != nil {
		a.serverError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	// A fresh session carrying only the notice: logged-out, nothing else.
	if err := a.sessions.write(w, Session{Flashes: []string{"You were logged out"}}); err != nil {
		a.serverError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
