package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/repository"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/testing/fixtures"
)

func TestUserRepository_DuplicateEmail(t *testing.T) {
	t.Parallel()
	tdb, f, _ := setup(t)
	users := repository.NewUserRepository(tdb.DB)

	existing := f.CreateUser(t)
	err := users.Create(tdb.Ctx(), &model.User{Email: existing.Email, Name: "Second"})
	assert.ErrorIs(t, err, database.ErrDuplicate)
}

func TestUserRepository_RestrictionLifecycle(t *testing.T) {
	t.Parallel()
	tdb, f, _ := setup(t)
	users := repository.NewUserRepository(tdb.DB)

	active := f.CreateUser(t)
	lapsed := f.CreateUser(t)

	restricted, err := users.SetRestriction(tdb.Ctx(), active.ID, "fake report", 7*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, restricted.IsRestrictedFromReporting)
	assert.True(t, restricted.Restriction.IsActiveAt(time.Now()))

	f.RestrictUserUntilPast(t, lapsed)

	ids, err := users.ListExpiredRestrictions(tdb.Ctx(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{lapsed.ID}, ids)

	cleared, err := users.ClearRestriction(tdb.Ctx(), lapsed.ID)
	require.NoError(t, err)
	assert.True(t, cleared)

	// An unexpired restriction is left alone
	cleared, err = users.ClearRestriction(tdb.Ctx(), active.ID)
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestUserRepository_LeaderboardOrdersByPoints(t *testing.T) {
	t.Parallel()
	tdb, f, _ := setup(t)
	users := repository.NewUserRepository(tdb.DB)

	low := f.CreateUser(t)
	high := f.CreateUser(t)
	f.CreatePolice(t)
	require.NoError(t, users.UpdateScore(tdb.Ctx(), low.ID, model.Score{Points: 10, Badge: model.BadgeNewReporter, Level: 1}))
	require.NoError(t, users.UpdateScore(tdb.Ctx(), high.ID, model.Score{Points: 250, Badge: model.BadgeRisingStar, Level: 3}))

	board, err := users.Leaderboard(tdb.Ctx(), 10)
	require.NoError(t, err)
	require.Len(t, board, 2, "only citizens are ranked")
	assert.Equal(t, high.ID, board[0].ID)
	assert.Equal(t, model.BadgeRisingStar, board[0].Badge)
}

func TestUserRepository_ListAvailableProviders(t *testing.T) {
	t.Parallel()
	tdb, f, _ := setup(t)
	users := repository.NewUserRepository(tdb.DB)

	near := f.CreateProvider(t, model.ServiceMechanic, fixtures.DefaultPoint)
	f.CreateProvider(t, model.ServiceTowing, fixtures.DefaultPoint)
	f.CreateProvider(t, model.ServiceMechanic, model.GeoPoint{Lat: 19.0760, Lng: 72.8777})

	box := model.BoundingBox{MinLat: 28.5, MaxLat: 28.7, MinLng: 77.2, MaxLng: 77.5}
	providers, err := users.ListAvailableProviders(tdb.Ctx(), model.ServiceMechanic, box, 10)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, near.ID, providers[0].ID)
}

func TestUserRepository_ListAvailableProvidersNearestFirst(t *testing.T) {
	t.Parallel()
	tdb, f, _ := setup(t)
	users := repository.NewUserRepository(tdb.DB)

	f.CreateProvider(t, model.ServiceMechanic, model.GeoPoint{Lat: 28.68, Lng: 77.45})
	nearest := f.CreateProvider(t, model.ServiceMechanic, fixtures.DefaultPoint)

	box := model.BoundingBox{MinLat: 28.5, MaxLat: 28.7, MinLng: 77.2, MaxLng: 77.5, Center: fixtures.DefaultPoint}
	providers, err := users.ListAvailableProviders(tdb.Ctx(), model.ServiceMechanic, box, 1)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, nearest.ID, providers[0].ID)
}

// ============================================================================
// Comments
// ============================================================================

func TestCommentRepository_ReactionsAreExclusive(t *testing.T) {
	t.Parallel()
	tdb, f, _ := setup(t)
	comments := repository.NewCommentRepository(tdb.DB)

	author := f.CreateUser(t)
	report := f.CreateReport(t, author)
	comment := &model.Comment{ReportID: report.ID, AuthorID: author.ID, Text: "Still blocked at 9am"}
	require.NoError(t, comments.Create(tdb.Ctx(), comment))

	reader := f.CreateUser(t)
	res, err := comments.ToggleReaction(tdb.Ctx(), comment.ID, reader.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.ReactionResult{Liked: true, Likes: 1}, *res)

	res, err = comments.ToggleReaction(tdb.Ctx(), comment.ID, reader.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.ReactionResult{Disliked: true, Dislikes: 1}, *res)
}

func TestCommentRepository_ListByReportIncludesReplies(t *testing.T) {
	t.Parallel()
	tdb, f, _ := setup(t)
	comments := repository.NewCommentRepository(tdb.DB)

	author := f.CreateUser(t)
	report := f.CreateReport(t, author)
	parent := &model.Comment{ReportID: report.ID, AuthorID: author.ID, Text: "Is the left lane open?"}
	require.NoError(t, comments.Create(tdb.Ctx(), parent))
	reply := &model.Comment{ReportID: report.ID, AuthorID: f.CreateUser(t).ID, Text: "Yes", ParentID: &parent.ID}
	require.NoError(t, comments.Create(tdb.Ctx(), reply))

	list, err := comments.ListByReport(tdb.Ctx(), report.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	edited, err := comments.UpdateText(tdb.Ctx(), parent.ID, "Is the right lane open?")
	require.NoError(t, err)
	assert.True(t, edited.Edited)
}

// ============================================================================
// Service Requests
// ============================================================================

func TestServiceRequestRepository_AcceptIsFirstWins(t *testing.T) {
	t.Parallel()
	tdb, f, _ := setup(t)
	requests := repository.NewServiceRequestRepository(tdb.DB)

	citizen := f.CreateUser(t)
	point := fixtures.DefaultPoint
	req := &model.ServiceRequest{
		RequesterID: citizen.ID,
		ServiceType: model.ServiceFuel,
		Location:    model.Location{Address: "Sector 62", Coordinates: &point},
	}
	require.NoError(t, requests.Create(tdb.Ctx(), req))
	assert.Equal(t, model.ServiceRequestPending, req.Status)

	first := f.CreateProvider(t, model.ServiceFuel, fixtures.DefaultPoint)
	second := f.CreateProvider(t, model.ServiceFuel, fixtures.DefaultPoint)

	accepted, err := requests.Transition(tdb.Ctx(), req.ID, model.ServiceRequestPending, model.ServiceRequestAccepted, first.ID)
	require.NoError(t, err)
	require.NotNil(t, accepted)
	require.NotNil(t, accepted.ProviderID)
	assert.Equal(t, first.ID, *accepted.ProviderID)
	assert.NotNil(t, accepted.AcceptedAt)

	lost, err := requests.Transition(tdb.Ctx(), req.ID, model.ServiceRequestPending, model.ServiceRequestAccepted, second.ID)
	require.NoError(t, err)
	assert.Nil(t, lost)

	mine, err := requests.ListByProvider(tdb.Ctx(), first.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
