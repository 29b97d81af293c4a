package service

import (
	"context"
	"strings"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// CommentStore defines the interface for comment data access
type CommentStore interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListByReport(ctx context.Context, reportID string) ([]*model.Comment, error)
	UpdateText(ctx context.Context, id, text string) (*model.Comment, error)
	Delete(ctx context.Context, id string) error
	ToggleReaction(ctx context.Context, id, userID string, like bool) (*model.ReactionResult, error)
}

// ReportLookup reads reports by ID
type ReportLookup interface {
	GetByID(ctx context.Context, id string) (*model.Report, error)
}

// CommentService handles discussion threads on reports
type CommentService struct {
	comments CommentStore
	reports  ReportLookup
}

// NewCommentService creates a new comment service
func NewCommentService(comments CommentStore, reports ReportLookup) *CommentService {
	return &CommentService{comments: comments, reports: reports}
}

// List returns the report's comments grouped into threads
func (s *CommentService) List(ctx context.Context, reportID string) ([]*model.CommentThread, error) {
	if err := s.requireReport(ctx, reportID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return model.ThreadComments(comments), nil
}

// Add posts a top-level comment
func (s *CommentService) Add(ctx context.Context, actor Actor, reportID string, req *model.CommentRequest) (*model.Comment, error) {
	return s.create(ctx, actor, reportID, nil, req)
}

// Reply answers a top-level comment. Replies to replies are refused.
func (s *CommentService) Reply(ctx context.Context, actor Actor, reportID, parentID string, req *model.CommentRequest) (*model.Comment, error) {
	parent, err := s.commentOn(ctx, reportID, parentID)
	if err != nil {
		return nil, err
	}
	if parent.ParentID != nil {
		return nil, ErrNestedReply
	}
	return s.create(ctx, actor, reportID, &parent.ID, req)
}

func (s *CommentService) create(ctx context.Context, actor Actor, reportID string, parentID *string, req *model.CommentRequest) (*model.Comment, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	if err := s.requireReport(ctx, reportID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ReportID: reportID,
		AuthorID: actor.UserID,
		Text:     strings.TrimSpace(req.Text),
		ParentID: parentID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Edit replaces the text of the caller's own comment
func (s *CommentService) Edit(ctx context.Context, actor Actor, reportID, commentID string, req *model.CommentRequest) (*model.Comment, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	comment, err := s.commentOn(ctx, reportID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != actor.UserID {
		return nil, ErrNotCommentAuthor
	}

	updated, err := s.comments.UpdateText(ctx, commentID, strings.TrimSpace(req.Text))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrCommentNotFound
	}
	return updated, nil
}

// Delete removes a comment and its replies. Admins may delete any comment.
func (s *CommentService) Delete(ctx context.Context, actor Actor, reportID, commentID string) error {
	comment, err := s.commentOn(ctx, reportID, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != actor.UserID && !actor.IsAdmin() {
		return ErrNotCommentAuthor
	}
	return s.comments.Delete(ctx, commentID)
}

// React toggles the caller's like (like=true) or dislike on a comment
func (s *CommentService) React(ctx context.Context, actor Actor, reportID, commentID string, like bool) (*model.ReactionResult, error) {
	if _, err := s.commentOn(ctx, reportID, commentID); err != nil {
		return nil, err
	}
	result, err := s.comments.ToggleReaction(ctx, commentID, actor.UserID, like)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrCommentNotFound
	}
	return result, nil
}

func (s *CommentService) requireReport(ctx context.Context, reportID string) error {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return err
	}
	if report == nil || !report.IsActive {
		return ErrReportNotFound
	}
	return nil
}

func (s *CommentService) commentOn(ctx context.Context, reportID, commentID string) (*model.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}
	if comment.ReportID != reportID {
		return nil, ErrCommentWrongReport
	}
	return comment, nil
}
