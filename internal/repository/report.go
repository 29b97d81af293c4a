package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// ReportRepository handles report data access
type ReportRepository struct {
	db database.Database
}

// NewReportRepository creates a new report repository
func NewReportRepository(db database.Database) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report. Status, counters and expiry are set here so
// every report starts from the same state.
func (r *ReportRepository) Create(ctx context.Context, report *model.Report) error {
	vars := map[string]interface{}{
		"type":        report.Type,
		"title":       report.Title,
		"description": report.Description,
		"address":     report.Location.Address,
		"coordinates": geoPointVar(report.Location.Coordinates),
		"city":        report.Location.City,
		"state":       report.Location.State,
		"country":     report.Location.Country,
		"severity":    report.Severity,
		"status":      model.ReportStatusActive,
		"reported_by": report.ReportedBy,
		"photos":      report.Photos,
		"expiry":      nil,
	}
	if report.Photos == nil {
		vars["photos"] = []string{}
	}
	if d, ok := report.Type.ExpiryFor(); ok {
		vars["expiry"] = surrealDuration(d)
	}

	query := `
		CREATE report CONTENT {
			type: $type,
			title: $title,
			description: $description,
			location: {
				address: $address,
				coordinates: IF $coordinates THEN $coordinates ELSE NONE END,
				city: $city,
				state: $state,
				country: $country
			},
			severity: $severity,
			status: $status,
			reported_by: type::record($reported_by),
			photos: $photos,
			likes: 0,
			views: 0,
			votes: { up: 0, down: 0 },
			poll: { still_there: 0, resolved: 0, fake: 0, votes: [] },
			expires_at: IF $expiry THEN time::now() + type::duration($expiry) ELSE NONE END,
			is_active: true,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	data := lastRecord(result)
	if data == nil {
		return errors.New("failed to extract created report")
	}
	created, err := r.parseReport(data)
	if err != nil {
		return err
	}
	*report = *created
	return nil
}

// GetByID retrieves a report by ID, including soft-deleted ones
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*model.Report, error) {
	query := `SELECT * FROM type::record($id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	return r.parseReport(data)
}

// List returns active reports matching the filter, newest first
func (r *ReportRepository) List(ctx context.Context, filter model.ReportFilter) ([]*model.Report, error) {
	filter.Normalize()

	query := `SELECT * FROM report WHERE is_active = true`
	vars := map[string]interface{}{
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}

	if filter.Type != nil {
		query += ` AND type = $type`
		vars["type"] = *filter.Type
	}
	if filter.Status != nil {
		query += ` AND status = $status`
		vars["status"] = *filter.Status
	}
	if filter.Severity != nil {
		query += ` AND severity = $severity`
		vars["severity"] = *filter.Severity
	}
	if filter.City != nil && *filter.City != "" {
		query += ` AND string::lowercase(location.city ?? "") = string::lowercase($city)`
		vars["city"] = *filter.City
	}

	query += ` ORDER BY created_on DESC LIMIT $limit START $offset`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return r.parseReports(result), nil
}

// ListByAuthor returns a user's active reports, newest first. A limit of 0
// returns all of them.
func (r *ReportRepository) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*model.Report, error) {
	query := `
		SELECT * FROM report
		WHERE reported_by = type::record($author) AND is_active = true
		ORDER BY created_on DESC
	`
	vars := map[string]interface{}{"author": authorID}
	if limit > 0 {
		query += ` LIMIT $limit START $offset`
		vars["limit"] = limit
		vars["offset"] = offset
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports by author: %w", err)
	}
	return r.parseReports(result), nil
}

// ListScoringHistory returns every report that still counts towards the
// author's score: the visible ones and the archived ones.
func (r *ReportRepository) ListScoringHistory(ctx context.Context, authorID string) ([]*model.Report, error) {
	query := `
		SELECT * FROM report
		WHERE reported_by = type::record($author)
		AND (is_active = true OR archived_on != NONE)
		ORDER BY created_on DESC
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"author": authorID})
	if err != nil {
		return nil, fmt.Errorf("failed to list scoring history: %w", err)
	}
	return r.parseReports(result), nil
}

// ListInBoundingBox returns active reports with coordinates inside the box,
// nearest to the box center first. limit caps the candidates after ordering.
func (r *ReportRepository) ListInBoundingBox(ctx context.Context, box model.BoundingBox, openOnly bool, limit int) ([]*model.Report, error) {
	vars := map[string]interface{}{"limit": limit}
	rank := nearestFirst("location.coordinates", box, vars)
	query := `
		SELECT *, ` + rank + ` FROM report
		WHERE is_active = true
		AND location.coordinates != NONE
		AND location.coordinates[1] >= $min_lat AND location.coordinates[1] <= $max_lat
		AND location.coordinates[0] >= $min_lng AND location.coordinates[0] <= $max_lng
	`
	if openOnly {
		query += ` AND status INSIDE $open`
		vars["open"] = openStatuses()
	}
	query += ` ORDER BY distance_rank ASC LIMIT $limit`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports in bounding box: %w", err)
	}
	return r.parseReports(result), nil
}

// ListDueForExpiry returns open reports whose deadline has passed, oldest deadline first
func (r *ReportRepository) ListDueForExpiry(ctx context.Context, limit int) ([]*model.Report, error) {
	query := `
		SELECT * FROM report
		WHERE is_active = true
		AND status INSIDE $open
		AND expires_at != NONE
		AND expires_at <= time::now()
		ORDER BY expires_at ASC
		LIMIT $limit
	`
	vars := map[string]interface{}{
		"open":  openStatuses(),
		"limit": limit,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired reports: %w", err)
	}
	return r.parseReports(result), nil
}

// Expire resolves a report whose deadline has passed. It returns nil when the
// report was resolved by someone else first or is no longer due.
func (r *ReportRepository) Expire(ctx context.Context, id string) (*model.Report, error) {
	query := `
		UPDATE type::record($id) SET
			status = $resolved,
			resolved_at = time::now(),
			updated_on = time::now()
		WHERE status INSIDE $open
		AND expires_at != NONE
		AND expires_at <= time::now()
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":       id,
		"resolved": model.ReportStatusResolved,
		"open":     openStatuses(),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to expire report: %w", err)
	}
	data := lastRecord(result)
	if data == nil {
		return nil, nil
	}
	return r.parseReport(data)
}

// ListResolvedBefore returns IDs of reports resolved longer ago than retention
func (r *ReportRepository) ListResolvedBefore(ctx context.Context, retention time.Duration, limit int) ([]string, error) {
	query := `
		SELECT id FROM report
		WHERE status = $resolved
		AND is_active = true
		AND resolved_at != NONE
		AND resolved_at < time::now() - type::duration($retention)
		ORDER BY resolved_at ASC
		LIMIT $limit
	`
	vars := map[string]interface{}{
		"resolved":  model.ReportStatusResolved,
		"retention": surrealDuration(retention),
		"limit":     limit,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolved reports: %w", err)
	}

	return collectIDs(result), nil
}

// HardDelete removes a report and every record hanging off it in one transaction
func (r *ReportRepository) HardDelete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"id": id}

	err := database.NewAtomicBatch().
		Add(`DELETE report_like WHERE report = type::record($id)`, vars).
		Add(`DELETE report_view WHERE report = type::record($id)`, vars).
		Add(`DELETE report_thumb WHERE report = type::record($id)`, vars).
		Add(`DELETE report_comment WHERE report = type::record($id)`, vars).
		Add(`DELETE type::record($id)`, vars).
		Execute(ctx, r.db)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

// Archive retires a resolved report: its likes, views, thumbs and comments are
// deleted and the report is hidden from listings, but the record itself is
// kept so the author's score does not change.
func (r *ReportRepository) Archive(ctx context.Context, id string) error {
	vars := map[string]interface{}{"id": id}

	err := database.NewAtomicBatch().
		Add(`DELETE report_like WHERE report = type::record($id)`, vars).
		Add(`DELETE report_view WHERE report = type::record($id)`, vars).
		Add(`DELETE report_thumb WHERE report = type::record($id)`, vars).
		Add(`DELETE report_comment WHERE report = type::record($id)`, vars).
		Add(`UPDATE type::record($id) SET is_active = false, archived_on = time::now(), updated_on = time::now()`, vars).
		Execute(ctx, r.db)
	if err != nil {
		return fmt.Errorf("failed to archive report: %w", err)
	}
	return nil
}

// SoftDelete hides a report from every listing
func (r *ReportRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE type::record($id) SET is_active = false, updated_on = time::now()`
	if err := r.db.Execute(ctx, query, map[string]interface{}{"id": id}); err != nil {
		return fmt.Errorf("failed to soft delete report: %w", err)
	}
	return nil
}

// Transition applies a status change if the stored status still matches From.
// It returns nil when the guard did not match.
func (r *ReportRepository) Transition(ctx context.Context, change model.StatusChange) (*model.Report, error) {
	from := make([]string, 0, len(change.From))
	for _, s := range change.From {
		from = append(from, string(s))
	}

	query := `
		UPDATE type::record($id) SET
			status = $to,
			status_reason = IF $reason THEN $reason ELSE status_reason END,
			verified_by = IF $to = "Verified" AND $actor THEN type::record($actor) ELSE verified_by END,
			verified_at = IF $to = "Verified" THEN time::now() ELSE verified_at END,
			resolved_at = IF $to = "Resolved" THEN time::now() ELSE resolved_at END,
			updated_on = time::now()
		WHERE status INSIDE $from
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":     change.ReportID,
		"to":     change.To,
		"from":   from,
		"actor":  change.ActorID,
		"reason": ptrToNone(change.Reason),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to update report status: %w", err)
	}
	data := lastRecord(result)
	if data == nil {
		return nil, nil
	}
	return r.parseReport(data)
}

// CastPollVote records a community poll vote in a single per-document update.
// The voter's previous ledger entry is replaced, tallies are recounted from the
// ledger, and the status moves to Resolved (self-resolution) or Fake Report
// (threshold reached). The update only applies to open reports; nil is
// returned when the report is terminal or missing.
func (r *ReportRepository) CastPollVote(ctx context.Context, reportID, userID string, choice model.PollChoice, selfResolve bool, fakeThreshold int) (*model.Report, error) {
	query := `
		UPDATE type::record($id) SET
			poll.votes = array::append(
				poll.votes[WHERE user != type::record($user)],
				{ user: type::record($user), choice: $choice, voted_at: time::now() }
			),
			poll.still_there = array::len(poll.votes[WHERE choice = "stillThere"]),
			poll.resolved = array::len(poll.votes[WHERE choice = "resolved"]),
			poll.fake = array::len(poll.votes[WHERE choice = "fake"]),
			status = IF $self_resolve THEN "Resolved"
				ELSE IF poll.fake >= $fake_threshold THEN "Fake Report"
				ELSE status END,
			resolved_at = IF status = "Resolved" THEN time::now() ELSE resolved_at END,
			updated_on = time::now()
		WHERE status INSIDE $open
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":             reportID,
		"user":           userID,
		"choice":         choice,
		"self_resolve":   selfResolve,
		"fake_threshold": fakeThreshold,
		"open":           openStatuses(),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to cast poll vote: %w", err)
	}
	data := lastRecord(result)
	if data == nil {
		return nil, nil
	}
	return r.parseReport(data)
}

// RecordView counts a viewer once per report. It returns false when the
// viewer had already been counted.
func (r *ReportRepository) RecordView(ctx context.Context, reportID, userID string) (bool, error) {
	vars := map[string]interface{}{"report": reportID, "user": userID}

	err := database.NewAtomicBatch().
		Add(`CREATE report_view SET report = type::record($report), user = type::record($user), created_on = time::now()`, vars).
		Add(`UPDATE type::record($report) SET views += 1`, vars).
		Execute(ctx, r.db)
	if err != nil {
		if isUniqueConstraintError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to record view: %w", err)
	}
	return true, nil
}

// ToggleLike adds the user's like or removes it if present, then recounts
func (r *ReportRepository) ToggleLike(ctx context.Context, reportID, userID string) (*model.LikeResult, error) {
	vars := map[string]interface{}{"report": reportID, "user": userID}

	existing, err := r.db.Query(ctx,
		`SELECT id FROM report_like WHERE report = type::record($report) AND user = type::record($user)`, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to check like: %w", err)
	}
	liked := false
	eachRecord(existing, func(map[string]interface{}) { liked = true })

	batch := database.NewAtomicBatch()
	if liked {
		batch.Add(`DELETE report_like WHERE report = type::record($report) AND user = type::record($user)`, vars)
	} else {
		batch.Add(`CREATE report_like SET report = type::record($report), user = type::record($user), created_on = time::now()`, vars)
	}
	batch.Add(`
		UPDATE type::record($report) SET
			likes = count(SELECT VALUE id FROM report_like WHERE report = type::record($report)),
			updated_on = time::now()
		RETURN AFTER
	`, vars)

	result, err := batch.Run(ctx, r.db)
	if err != nil {
		if isUniqueConstraintError(err) {
			// A concurrent request from the same user already liked it
			return r.likeState(ctx, reportID, true)
		}
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	return &model.LikeResult{Liked: !liked, Likes: getInt(lastRecord(result), "likes")}, nil
}

func (r *ReportRepository) likeState(ctx context.Context, reportID string, liked bool) (*model.LikeResult, error) {
	report, err := r.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, database.ErrNotFound
	}
	return &model.LikeResult{Liked: liked, Likes: report.Likes}, nil
}

// SetThumb records the user's up/down vote, replacing any previous direction,
// and recounts both totals
func (r *ReportRepository) SetThumb(ctx context.Context, reportID, userID string, direction model.ThumbDirection) (*model.ThumbCounts, error) {
	vars := map[string]interface{}{"report": reportID, "user": userID, "direction": direction}

	result, err := database.NewAtomicBatch().
		Add(`DELETE report_thumb WHERE report = type::record($report) AND user = type::record($user)`, vars).
		Add(`CREATE report_thumb SET report = type::record($report), user = type::record($user), direction = $direction, created_on = time::now()`, vars).
		Add(`
			UPDATE type::record($report) SET
				votes.up = count(SELECT VALUE id FROM report_thumb WHERE report = type::record($report) AND direction = "up"),
				votes.down = count(SELECT VALUE id FROM report_thumb WHERE report = type::record($report) AND direction = "down"),
				updated_on = time::now()
			RETURN AFTER
		`, vars).
		Run(ctx, r.db)
	if err != nil {
		return nil, fmt.Errorf("failed to set thumb: %w", err)
	}

	votes := getMap(lastRecord(result), "votes")
	return &model.ThumbCounts{Up: getInt(votes, "up"), Down: getInt(votes, "down")}, nil
}

// MigrateLegacyStatuses rewrites stored legacy status values to the current
// vocabulary and returns how many reports changed per legacy value
func (r *ReportRepository) MigrateLegacyStatuses(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for legacy, current := range model.LegacyStatusMapping() {
		query := `
			UPDATE report SET status = $to, updated_on = time::now()
			WHERE status = $from
			RETURN id
		`
		result, err := r.db.Query(ctx, query, map[string]interface{}{"from": legacy, "to": current})
		if err != nil {
			return counts, fmt.Errorf("failed to migrate %q reports: %w", legacy, err)
		}
		n := 0
		eachRecord(result, func(map[string]interface{}) { n++ })
		counts[legacy] = n
	}
	return counts, nil
}

// Parsing

func (r *ReportRepository) parseReport(data map[string]interface{}) (*model.Report, error) {
	if data == nil {
		return nil, errors.New("unexpected result format")
	}

	report := &model.Report{
		ID:          convertSurrealID(data["id"]),
		Type:        model.ReportType(getString(data, "type")),
		Title:       getString(data, "title"),
		Description: getString(data, "description"),
		Severity:    model.Severity(getString(data, "severity")),
		ReportedBy:  convertSurrealID(data["reported_by"]),
		VerifiedBy:  getRecordIDPtr(data, "verified_by"),
		VerifiedAt:  getTime(data, "verified_at"),
		ResolvedAt:  getTime(data, "resolved_at"),
		Photos:      getStringSlice(data, "photos"),
		Likes:       getInt(data, "likes"),
		Views:       getInt(data, "views"),
		ExpiresAt:   getTime(data, "expires_at"),
		IsActive:    getBool(data, "is_active"),
		ArchivedOn:  getTime(data, "archived_on"),
	}
	if report.Photos == nil {
		report.Photos = []string{}
	}

	// Tolerate legacy values that predate the status migration
	if st, ok := model.ParseReportStatus(getString(data, "status")); ok {
		report.Status = st
	} else {
		report.Status = model.ReportStatus(getString(data, "status"))
	}

	if loc := getMap(data, "location"); loc != nil {
		report.Location = model.Location{
			Address:     getString(loc, "address"),
			Coordinates: getGeoPoint(loc, "coordinates"),
			City:        getString(loc, "city"),
			State:       getString(loc, "state"),
			Country:     getString(loc, "country"),
		}
	}

	if votes := getMap(data, "votes"); votes != nil {
		report.Votes = model.ThumbCounts{Up: getInt(votes, "up"), Down: getInt(votes, "down")}
	}

	report.Poll = parsePoll(getMap(data, "poll"))

	if t := getTime(data, "created_on"); t != nil {
		report.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		report.UpdatedOn = *t
	}

	return report, nil
}

func parsePoll(data map[string]interface{}) model.Poll {
	poll := model.Poll{Votes: []model.PollVote{}}
	if data == nil {
		return poll
	}
	poll.StillThere = getInt(data, "still_there")
	poll.Resolved = getInt(data, "resolved")
	poll.Fake = getInt(data, "fake")

	if entries, ok := data["votes"].([]interface{}); ok {
		for _, e := range entries {
			m, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			vote := model.PollVote{
				UserID: convertSurrealID(m["user"]),
				Choice: model.PollChoice(getString(m, "choice")),
			}
			if t := getTime(m, "voted_at"); t != nil {
				vote.VotedAt = *t
			}
			poll.Votes = append(poll.Votes, vote)
		}
	}
	return poll
}

func (r *ReportRepository) parseReports(result []interface{}) []*model.Report {
	reports := make([]*model.Report, 0)
	eachRecord(result, func(data map[string]interface{}) {
		report, err := r.parseReport(data)
		if err != nil {
			return
		}
		reports = append(reports, report)
	})
	return reports
}
