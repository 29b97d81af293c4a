package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// CommentRepository handles report comment data access
type CommentRepository struct {
	db database.Database
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db database.Database) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment or reply
func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	vars := map[string]interface{}{
		"report": comment.ReportID,
		"author": comment.AuthorID,
		"text":   comment.Text,
		"parent": ptrToNone(comment.ParentID),
	}

	query := `
		CREATE report_comment CONTENT {
			report: type::record($report),
			author: type::record($author),
			text: $text,
			parent: IF $parent THEN type::record($parent) ELSE NONE END,
			likes: [],
			dislikes: [],
			edited: false,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return fmt.Errorf("failed to extract created comment: %w", err)
	}

	comment.ID = created.ID
	comment.Likes = []string{}
	comment.Dislikes = []string{}
	comment.CreatedOn = created.CreatedOn
	comment.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	query := `SELECT * FROM type::record($id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	return r.parseComment(data), nil
}

// ListByReport returns every comment on a report, oldest first
func (r *CommentRepository) ListByReport(ctx context.Context, reportID string) ([]*model.Comment, error) {
	query := `
		SELECT * FROM report_comment
		WHERE report = type::record($report)
		ORDER BY created_on ASC
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"report": reportID})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]*model.Comment, 0)
	eachRecord(result, func(data map[string]interface{}) {
		comments = append(comments, r.parseComment(data))
	})
	return comments, nil
}

// UpdateText replaces a comment's text and marks it edited
func (r *CommentRepository) UpdateText(ctx context.Context, id, text string) (*model.Comment, error) {
	query := `
		UPDATE type::record($id) SET
			text = $text,
			edited = true,
			updated_on = time::now()
		RETURN AFTER
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"id": id, "text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	data := lastRecord(result)
	if data == nil {
		return nil, nil
	}
	return r.parseComment(data), nil
}

// Delete removes a comment together with its replies
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"id": id}

	err := database.NewAtomicBatch().
		Add(`DELETE report_comment WHERE parent = type::record($id)`, vars).
		Add(`DELETE type::record($id)`, vars).
		Execute(ctx, r.db)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// ToggleReaction flips the user's like (or dislike) on a comment. Setting one
// reaction always clears the opposite one.
func (r *CommentRepository) ToggleReaction(ctx context.Context, id, userID string, like bool) (*model.ReactionResult, error) {
	query := `
		UPDATE type::record($id) SET
			likes = IF $like THEN
				(IF likes CONTAINS type::record($user) THEN array::complement(likes, [type::record($user)]) ELSE array::union(likes, [type::record($user)]) END)
				ELSE array::complement(likes, [type::record($user)]) END,
			dislikes = IF $like THEN array::complement(dislikes, [type::record($user)])
				ELSE (IF dislikes CONTAINS type::record($user) THEN array::complement(dislikes, [type::record($user)]) ELSE array::union(dislikes, [type::record($user)]) END)
				END
		RETURN AFTER
	`
	vars := map[string]interface{}{"id": id, "user": userID, "like": like}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle comment reaction: %w", err)
	}
	data := lastRecord(result)
	if data == nil {
		return nil, nil
	}

	c := r.parseComment(data)
	return &model.ReactionResult{
		Liked:    contains(c.Likes, userID),
		Disliked: contains(c.Dislikes, userID),
		Likes:    len(c.Likes),
		Dislikes: len(c.Dislikes),
	}, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (r *CommentRepository) parseComment(data map[string]interface{}) *model.Comment {
	c := &model.Comment{
		ID:       convertSurrealID(data["id"]),
		ReportID: convertSurrealID(data["report"]),
		AuthorID: convertSurrealID(data["author"]),
		Text:     getString(data, "text"),
		ParentID: getRecordIDPtr(data, "parent"),
		Likes:    getRecordIDSlice(data, "likes"),
		Dislikes: getRecordIDSlice(data, "dislikes"),
		Edited:   getBool(data, "edited"),
	}
	if t := getTime(data, "created_on"); t != nil {
		c.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		c.UpdatedOn = *t
	}
	return c
}
