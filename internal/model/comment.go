package model

import "time"

// Comment is a remark on a report. Replies point at their parent comment.
type Comment struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"report_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Likes     []string  `json:"likes"`
	Dislikes  []string  `json:"dislikes"`
	Edited    bool      `json:"edited"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// CommentThread is a top-level comment together with its replies
type CommentThread struct {
	*Comment
	Replies []*Comment `json:"replies"`
}

// ThreadComments groups a flat, oldest-first list into top-level threads.
// Replies whose parent is missing are dropped.
func ThreadComments(comments []*Comment) []*CommentThread {
	threads := make([]*CommentThread, 0)
	byID := make(map[string]*CommentThread)
	for _, c := range comments {
		if c.ParentID == nil {
			th := &CommentThread{Comment: c, Replies: []*Comment{}}
			threads = append(threads, th)
			byID[c.ID] = th
		}
	}
	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		if th, ok := byID[*c.ParentID]; ok {
			th.Replies = append(th.Replies, c)
		}
	}
	return threads
}

// CommentRequest is the body for creating, replying to, or editing a comment
type CommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}

// Validate checks the request and returns field errors
func (r *CommentRequest) Validate() []FieldError {
	return Validate(r)
}

// ReactionResult is returned by comment like/dislike toggles
type ReactionResult struct {
	Liked    bool `json:"liked"`
	Disliked bool `json:"disliked"`
	Likes    int  `json:"likes"`
	Dislikes int  `json:"dislikes"`
}
