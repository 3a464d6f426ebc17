package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/terraconstructs/blogapi/internal/auth"
	"github.com/terraconstructs/blogapi/internal/services/blog"
)

// PostRequest is the body of post create and update calls.
type PostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PostResponse is the JSON shape of a post.
type PostResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author_id"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPostResponse(p blog.PostView) PostResponse {
	return PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		AuthorID:  p.AuthorID,
		Author:    p.Author,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type postHandlers struct {
	svc    *blog.Service
	logger *slog.Logger
}

func (h *postHandlers) list(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	result, err := h.svc.ListPosts(r.Context(), page, size)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(result, toPostResponse))
}

func (h *postHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "postID")
	if !ok {
		return
	}
	post, err := h.svc.GetPost(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(*post))
}

func (h *postHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	post, err := h.svc.CreatePost(r.Context(), auth.OptionalPrincipal(r.Context()), blog.PostInput{Title: req.Title, Content: req.Content})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(*post))
}

func (h *postHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "postID")
	if !ok {
		return
	}
	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	post, err := h.svc.UpdatePost(r.Context(), auth.OptionalPrincipal(r.Context()), id, blog.PostInput{Title: req.Title, Content: req.Content})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(*post))
}

func (h *postHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "postID")
	if !ok {
		return
	}
	if err := h.svc.DeletePost(r.Context(), auth.OptionalPrincipal(r.Context()), id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
