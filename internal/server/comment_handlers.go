package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/terraconstructs/blogapi/internal/auth"
	"github.com/terraconstructs/blogapi/internal/services/blog"
)

// CommentRequest is the body of comment create and update calls.
type CommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse is the JSON shape of a comment.
type CommentResponse struct {
	ID             int64     `json:"id"`
	PostID         int64     `json:"post_id"`
	Content        string    `json:"content"`
	AuthorID       int64     `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toCommentResponse(c blog.CommentView) CommentResponse {
	return CommentResponse{
		ID:             c.ID,
		PostID:         c.PostID,
		Content:        c.Content,
		AuthorID:       c.AuthorID,
		AuthorUsername: c.AuthorUsername,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

type commentHandlers struct {
	svc    *blog.Service
	logger *slog.Logger
}

func (h *commentHandlers) list(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}
	page, size := pageParams(r)
	result, err := h.svc.ListComments(r.Context(), postID, page, size)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(result, toCommentResponse))
}

func (h *commentHandlers) create(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}
	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := h.svc.CreateComment(r.Context(), auth.OptionalPrincipal(r.Context()), postID, req.Content)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(*comment))
}

func (h *commentHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "commentID")
	if !ok {
		return
	}
	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := h.svc.UpdateComment(r.Context(), auth.OptionalPrincipal(r.Context()), id, req.Content)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponse(*comment))
}

func (h *commentHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "commentID")
	if !ok {
		return
	}
	if err := h.svc.DeleteComment(r.Context(), auth.OptionalPrincipal(r.Context()), id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
