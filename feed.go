package main

import (
	"net/http"
	"time"

	"github.com/gorilla/feeds"
)

func (a *App) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := listPosts(a.db)
	if err != nil {
		a.serverError(w, err)
		return
	}

	feed := &feeds.Feed{
		Title:       "jot",
		Link:        &feeds.Link{Href: a.cfg.PublicBaseURL},
		Description: "a personal journal",
	}

	for _, post := range posts {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       post.Title,
			Link:        &feeds.Link{Href: a.cfg.PublicBaseURL + a.postURL(post.ID)},
			Id:          a.cfg.PublicBaseURL + a.postURL(post.ID),
			Created:     time.Unix(post.DateCreated, 0),
			Description: string(renderMarkdown(post.Body)),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		a.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(rss))
}
