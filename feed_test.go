package main

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestFeed(t *testing.T) {
	app := newTestApp(t)

	createPost(app.db, "First Post", "First content", time.Now().Unix())
	createPost(app.db, "Second Post", "Second content", time.Now().Unix())

	w := doGet(t, app, "/feed")

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	contentType := w.Header().Get("Content-Type")
	if !strings.Contains(contentType, "application/rss+xml") {
		t.Errorf("expected Content-Type application/rss+xml, got %s", contentType)
	}

	body := w.Body.String()

	if !strings.Contains(body, `<?xml version="1.0"`) {
		t.Error("expected XML declaration")
	}
	if !strings.Contains(body, "<channel>") {
		t.Error("expected channel element")
	}
	if !strings.Contains(body, "First Post") {
		t.Error("expected First Post in feed")
	}
	if !strings.Contains(body, "Second Post") {
		t.Error("expected Second Post in feed")
	}
	if !strings.Contains(body, "http://blog.example.com/post/1") {
		t.Error("expected item links built from the public base URL")
	}
}

func TestFeed_Empty(t *testing.T) {
	app := newTestApp(t)

	w := doGet(t, app, "/feed")

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "<channel>") {
		t.Error("expected channel element even with no posts")
	}
}

func TestFeed_EscapesXML(t *testing.T) {
	app := newTestApp(t)

	createPost(app.db, "Test <script>", "plain", time.Now().Unix())

	w := doGet(t, app, "/feed")

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("expected < to be escaped in titles")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("expected &lt;script&gt; in escaped title")
	}
}
