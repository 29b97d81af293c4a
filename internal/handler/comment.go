package handler

import (
	"context"
	"net/http"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
)

// CommentOperations is the comment behaviour the handler needs
type CommentOperations interface {
	List(ctx context.Context, reportID string) ([]*model.CommentThread, error)
	Add(ctx context.Context, actor service.Actor, reportID string, req *model.CommentRequest) (*model.Comment, error)
	Reply(ctx context.Context, actor service.Actor, reportID, parentID string, req *model.CommentRequest) (*model.Comment, error)
	Edit(ctx context.Context, actor service.Actor, reportID, commentID string, req *model.CommentRequest) (*model.Comment, error)
	Delete(ctx context.Context, actor service.Actor, reportID, commentID string) error
	React(ctx context.Context, actor service.Actor, reportID, commentID string, like bool) (*model.ReactionResult, error)
}

// CommentHandler handles report discussion threads
type CommentHandler struct {
	comments CommentOperations
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(comments CommentOperations) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// List handles GET /api/reports/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	threads, err := h.comments.List(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "list comments")
		return
	}
	WriteCollection(w, http.StatusOK, threads, nil, nil)
}

// Add handles POST /api/reports/{id}/comments
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req model.CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.comments.Add(r.Context(), actor, r.PathValue("id"), &req)
	if err != nil {
		writeServiceError(w, r, err, "add comment")
		return
	}
	WriteData(w, http.StatusCreated, comment, nil)
}

// Reply handles POST /api/reports/{id}/comments/{commentId}/replies
func (h *CommentHandler) Reply(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req model.CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.comments.Reply(r.Context(), actor, r.PathValue("id"), r.PathValue("commentId"), &req)
	if err != nil {
		writeServiceError(w, r, err, "reply to comment")
		return
	}
	WriteData(w, http.StatusCreated, comment, nil)
}

// Edit handles PUT /api/reports/{id}/comments/{commentId}
func (h *CommentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req model.CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.comments.Edit(r.Context(), actor, r.PathValue("id"), r.PathValue("commentId"), &req)
	if err != nil {
		writeServiceError(w, r, err, "edit comment")
		return
	}
	WriteData(w, http.StatusOK, comment, nil)
}

// Delete handles DELETE /api/reports/{id}/comments/{commentId}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.comments.Delete(r.Context(), actor, r.PathValue("id"), r.PathValue("commentId")); err != nil {
		writeServiceError(w, r, err, "delete comment")
		return
	}
	WriteNoContent(w)
}

// Like handles POST /api/reports/{id}/comments/{commentId}/like
func (h *CommentHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, true)
}

// Dislike handles POST /api/reports/{id}/comments/{commentId}/dislike
func (h *CommentHandler) Dislike(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, false)
}

func (h *CommentHandler) react(w http.ResponseWriter, r *http.Request, like bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	result, err := h.comments.React(r.Context(), actor, r.PathValue("id"), r.PathValue("commentId"), like)
	if err != nil {
		writeServiceError(w, r, err, "react to comment")
		return
	}
	WriteData(w, http.StatusOK, result, nil)
}
