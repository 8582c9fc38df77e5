package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(c.requestIdMw)

	r.Get("/api/search", c.search)
	r.Get("/api/video/{videoID}", c.lookupVideo)
	r.HandleFunc("/ws", c.serveWS)

	return r
}
