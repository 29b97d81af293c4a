package model

import "time"

// PollChoice is a community answer about whether an incident is still there
type PollChoice string

const (
	PollStillThere PollChoice = "stillThere"
	PollResolved   PollChoice = "resolved"
	PollFake       PollChoice = "fake"
)

// IsValid reports whether c is a known poll choice
func (c PollChoice) IsValid() bool {
	return c == PollStillThere || c == PollResolved || c == PollFake
}

// PollVote is one user's entry in a report's poll ledger
type PollVote struct {
	UserID  string     `json:"user_id"`
	Choice  PollChoice `json:"choice"`
	VotedAt time.Time  `json:"voted_at"`
}

// TallyOf counts ledger entries per choice
func TallyOf(votes []PollVote) PollTally {
	var t PollTally
	for _, v := range votes {
		switch v.Choice {
		case PollStillThere:
			t.StillThere++
		case PollResolved:
			t.Resolved++
		case PollFake:
			t.Fake++
		}
	}
	return t
}

// CastVoteRequest is the body of POST /reports/{id}/vote
type CastVoteRequest struct {
	Choice string `json:"choice" validate:"required,poll_choice"`
}

// Validate checks the request and returns field errors
func (r *CastVoteRequest) Validate() []FieldError {
	return Validate(r)
}

// VoteResult is returned after a poll vote
type VoteResult struct {
	ReportID     string       `json:"report_id"`
	Choice       PollChoice   `json:"choice"`
	Tally        PollTally    `json:"poll"`
	Status       ReportStatus `json:"status"`
	SelfResolved bool         `json:"self_resolved"`
	MarkedFake   bool         `json:"marked_fake"`
}
