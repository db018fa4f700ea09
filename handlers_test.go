package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockStore records calls so tests can verify how handlers use the store.
type mockStore[E Entity[E, K], K comparable] struct {
	mock.Mock
}

func (m *mockStore[E, K]) FindAll(ctx context.Context) ([]E, error) {
	args := m.Called(ctx)
	return args.Get(0).([]E), args.Error(1)
}

func (m *mockStore[E, K]) FindByID(ctx context.Context, key K) (E, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(E), args.Bool(1), args.Error(2)
}

func (m *mockStore[E, K]) Save(ctx context.Context, entity E) (E, error) {
	args := m.Called(ctx, entity)
	return args.Get(0).(E), args.Error(1)
}

func (m *mockStore[E, K]) Delete(ctx context.Context, entity E) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

const testSecret = "test-secret"

var testAuthn = func() *TokenAuthenticator {
	a, err := NewTokenAuthenticator(testSecret, "")
	if err != nil {
		panic(err)
	}
	return a
}()

func newTestRouter(resources ...registrar) http.Handler {
	return newRouter(resources, testAuthn)
}

// perform sends a request; without roles the caller is anonymous.
func perform(t *testing.T, h http.Handler, method, target string, body []byte, roles ...Role) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(roles) > 0 {
		token, err := testAuthn.Issue("gaucho@ucsb.edu", time.Hour, roles...)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func newReviewResource() (*mockStore[Review, int64], http.Handler) {
	store := &mockStore[Review, int64]{}
	return store, newTestRouter(NewResource(reviews, store, nil))
}

func TestLoggedOutUsersCannotGetAll(t *testing.T) {
	store, h := newReviewResource()

	rec := perform(t, h, http.MethodGet, "/api/MenuItemReview/all", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errorResponse{"AccessDeniedException", "Access is denied"}, decodeError(t, rec))
	store.AssertNotCalled(t, "FindAll", mock.Anything)
}

func TestLoggedOutUsersCannotGetByID(t *testing.T) {
	store, h := newReviewResource()

	rec := perform(t, h, http.MethodGet, "/api/MenuItemReview?id=7", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestRegularUsersCannotWrite(t *testing.T) {
	store, h := newReviewResource()

	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/api/MenuItemReview/post"},
		{http.MethodPut, "/api/MenuItemReview?id=1"},
		{http.MethodDelete, "/api/MenuItemReview?id=1"},
	} {
		rec := perform(t, h, tc.method, tc.target, nil, RoleUser)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", tc.method, tc.target)
	}
	assert.Empty(t, store.Calls)
}

func TestAdminWithoutUserRoleCannotRead(t *testing.T) {
	store, h := newReviewResource()

	rec := perform(t, h, http.MethodGet, "/api/MenuItemReview/all", nil, RoleAdmin)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, store.Calls)
}

func TestLoggedInUserCanGetAll(t *testing.T) {
	store, h := newReviewResource()
	expected := []Review{
		{ID: 1, ItemID: 10, ReviewerEmail: "gaucho_sb@ucsb.edu", Stars: 3, Comments: "not too shabby", DateReviewed: MustParseDate("2022-01-03")},
		{ID: 2, ItemID: 11, ReviewerEmail: "cgaucho@ucsb.edu", Stars: 5, Comments: "great", DateReviewed: MustParseDate("2022-03-11")},
	}
	store.On("FindAll", mock.Anything).Return(expected, nil)

	rec := perform(t, h, http.MethodGet, "/api/MenuItemReview/all", nil, RoleUser)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, string(mustJSON(t, expected)), rec.Body.String())
	store.AssertNumberOfCalls(t, "FindAll", 1)
}

func TestGetAllEmptyIsArray(t *testing.T) {
	store, h := newReviewResource()
	store.On("FindAll", mock.Anything).Return([]Review{}, nil)

	rec := perform(t, h, http.MethodGet, "/api/MenuItemReview/all", nil, RoleUser)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestGetByIDWhenTheIDExists(t *testing.T) {
	store, h := newReviewResource()
	review := Review{ID: 123, ItemID: 20, ReviewerEmail: "gaucho@ucsb.edu", Stars: 3, Comments: "pretty good", DateReviewed: MustParseDate("2022-01-03")}
	store.On("FindByID", mock.Anything, int64(123)).Return(review, true, nil)

	rec := perform(t, h, http.MethodGet, "/api/MenuItemReview?id=123", nil, RoleUser)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(mustJSON(t, review)), rec.Body.String())
	assert.JSONEq(t, `{"id":123,"itemId":20,"reviewerEmail":"gaucho@ucsb.edu","stars":3,"dateReviewed":"2022-01-03","comments":"pretty good"}`, rec.Body.String())
	store.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestGetByIDWhenTheIDDoesNotExist(t *testing.T) {
	store, h := newReviewResource()
	store.On("FindByID", mock.Anything, int64(123)).Return(Review{}, false, nil)

	rec := perform(t, h, http.MethodGet, "/api/MenuItemReview?id=123", nil, RoleUser)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errorResponse{"EntityNotFoundException", "MenuItemReview with id 123 not found"}, decodeError(t, rec))
}

func TestGetByIDRejectsBadKey(t *testing.T) {
	store, h := newReviewResource()

	rec := perform(t, h, http.MethodGet, "/api/MenuItemReview?id=abc", nil, RoleUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ValidationException", decodeError(t, rec).Type)

	rec = perform(t, h, http.MethodGet, "/api/MenuItemReview", nil, RoleUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Required request parameter 'id' is not present", decodeError(t, rec).Message)
	assert.Empty(t, store.Calls)
}

func TestAdminCanPostANewReview(t *testing.T) {
	store, h := newReviewResource()
	unsaved := Review{ItemID: 10, ReviewerEmail: "gaucho@ucsb.edu", Stars: 3, Comments: "good", DateReviewed: MustParseDate("2022-01-03")}
	saved := unsaved.WithKey(1)
	store.On("Save", mock.Anything, unsaved).Return(saved, nil)

	rec := perform(t, h, http.MethodPost,
		"/api/MenuItemReview/post?itemId=10&reviewerEmail=gaucho@ucsb.edu&stars=3&comments=good&dateReviewed=2022-01-03",
		nil, RoleAdmin, RoleUser)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(mustJSON(t, saved)), rec.Body.String())
	store.AssertNumberOfCalls(t, "Save", 1)
}

func TestPostRejectsMissingAndMalformedParams(t *testing.T) {
	store, h := newReviewResource()

	for target, msg := range map[string]string{
		"/api/MenuItemReview/post?itemId=10&reviewerEmail=gaucho@ucsb.edu&stars=3&comments=good":                           "Required request parameter 'dateReviewed' is not present",
		"/api/MenuItemReview/post?itemId=x&reviewerEmail=gaucho@ucsb.edu&stars=3&comments=good&dateReviewed=2022-01-03":    `invalid value "x" for parameter 'itemId': invalid syntax`,
		"/api/MenuItemReview/post?itemId=10&reviewerEmail=not-an-email&stars=3&comments=good&dateReviewed=2022-01-03":      "reviewerEmail must be a valid email",
		"/api/MenuItemReview/post?itemId=10&reviewerEmail=gaucho@ucsb.edu&stars=3&comments=good&dateReviewed=2022-01-03T1": `invalid value "2022-01-03T1" for parameter 'dateReviewed': invalid date "2022-01-03T1": expected YYYY-MM-DD`,
	} {
		rec := perform(t, h, http.MethodPost, target, nil, RoleAdmin)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, errorResponse{"ValidationException", msg}, decodeError(t, rec), target)
	}
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAdminCanDeleteAReview(t *testing.T) {
	store, h := newReviewResource()
	review := Review{ID: 123, ItemID: 20, ReviewerEmail: "gaucho@ucsb.edu", Stars: 3, Comments: "pretty good", DateReviewed: MustParseDate("2022-01-03")}
	store.On("FindByID", mock.Anything, int64(123)).Return(review, true, nil)
	store.On("Delete", mock.Anything, review).Return(nil)

	rec := perform(t, h, http.MethodDelete, "/api/MenuItemReview?id=123", nil, RoleAdmin, RoleUser)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"MenuItemReview with id 123 deleted"}`, rec.Body.String())
	store.AssertNumberOfCalls(t, "FindByID", 1)
	store.AssertNumberOfCalls(t, "Delete", 1)
}

func TestAdminTriesToDeleteNonExistentReview(t *testing.T) {
	store, h := newReviewResource()
	store.On("FindByID", mock.Anything, int64(123)).Return(Review{}, false, nil)

	rec := perform(t, h, http.MethodDelete, "/api/MenuItemReview?id=123", nil, RoleAdmin)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MenuItemReview with id 123 not found", decodeError(t, rec).Message)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAdminCanEditAnExistingReview(t *testing.T) {
	store, h := newReviewResource()
	orig := Review{ID: 67, ItemID: 20, ReviewerEmail: "gaucho@ucsb.edu", Stars: 3, Comments: "pretty good", DateReviewed: MustParseDate("2022-01-03")}
	edited := Review{ID: 67, ItemID: 21, ReviewerEmail: "cgaucho@ucsb.edu", Stars: 1, Comments: "cold", DateReviewed: MustParseDate("2023-01-03")}
	body := mustJSON(t, edited)
	store.On("FindByID", mock.Anything, int64(67)).Return(orig, true, nil)
	store.On("Save", mock.Anything, edited).Return(edited, nil)

	rec := perform(t, h, http.MethodPut, "/api/MenuItemReview?id=67", body, RoleAdmin, RoleUser)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(body), rec.Body.String())
	store.AssertCalled(t, "Save", mock.Anything, edited)
}

func TestEditKeepsTheLookedUpID(t *testing.T) {
	store, h := newReviewResource()
	orig := Review{ID: 67, ItemID: 20, Stars: 3, DateReviewed: MustParseDate("2022-01-03")}
	incoming := Review{ID: 999, ItemID: 21, Stars: 4, DateReviewed: MustParseDate("2022-01-04")}
	want := incoming.WithKey(67)
	store.On("FindByID", mock.Anything, int64(67)).Return(orig, true, nil)
	store.On("Save", mock.Anything, want).Return(want, nil)

	rec := perform(t, h, http.MethodPut, "/api/MenuItemReview?id=67", mustJSON(t, incoming), RoleAdmin)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(mustJSON(t, want)), rec.Body.String())
}

func TestAdminCannotEditReviewThatDoesNotExist(t *testing.T) {
	store, h := newReviewResource()
	store.On("FindByID", mock.Anything, int64(67)).Return(Review{}, false, nil)

	rec := perform(t, h, http.MethodPut, "/api/MenuItemReview?id=67", mustJSON(t, Review{ItemID: 1}), RoleAdmin)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MenuItemReview with id 67 not found", decodeError(t, rec).Message)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestEditRejectsMalformedBody(t *testing.T) {
	store, h := newReviewResource()

	for _, body := range []string{
		`{"itemId": "ten"}`,
		`{"itemId": 1, "unknown": true}`,
		`{"itemId": 1}{"itemId": 2}`,
		`{"dateReviewed": "yesterday"}`,
		`null`,
	} {
		rec := perform(t, h, http.MethodPut, "/api/MenuItemReview?id=67", []byte(body), RoleAdmin)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "ValidationException", decodeError(t, rec).Type, body)
	}
	assert.Empty(t, store.Calls)
}

func TestEditRequiresABody(t *testing.T) {
	store, h := newReviewResource()

	for _, body := range []string{`null`, ` null `, ``} {
		rec := perform(t, h, http.MethodPut, "/api/MenuItemReview?id=67", []byte(body), RoleAdmin)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "ValidationException", decodeError(t, rec).Type, body)
	}
	rec := perform(t, h, http.MethodPut, "/api/MenuItemReview?id=67", []byte(`null`), RoleAdmin)
	assert.Equal(t, errorResponse{"ValidationException", "request body is required"}, decodeError(t, rec))
	store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestStorageFailureIsInternalServerError(t *testing.T) {
	store, h := newReviewResource()
	store.On("FindAll", mock.Anything).Return([]Review(nil), errors.New("connection refused"))

	rec := perform(t, h, http.MethodGet, "/api/MenuItemReview/all", nil, RoleUser)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errorResponse{"InternalServerError", "internal server error"}, decodeError(t, rec))
}

func TestRegularUserCanPostRecommendation(t *testing.T) {
	store := &mockStore[Recommendation, int64]{}
	h := newTestRouter(NewResource(recommendations, store, nil))
	unsaved := Recommendation{
		RequesterEmail: "cgaucho@ucsb.edu",
		ProfessorEmail: "phtcon@ucsb.edu",
		Explanation:    "BS/MS program",
		DateRequested:  MustParseDate("2022-04-20"),
		DateNeeded:     MustParseDate("2022-05-01"),
	}
	store.On("Save", mock.Anything, unsaved).Return(unsaved.WithKey(1), nil)

	q := url.Values{
		"requesterEmail": {"cgaucho@ucsb.edu"},
		"professorEmail": {"phtcon@ucsb.edu"},
		"explanation":    {"BS/MS program"},
		"dateRequested":  {"2022-04-20"},
		"dateNeeded":     {"2022-05-01"},
		"done":           {"false"},
	}
	rec := perform(t, h, http.MethodPost, "/api/Recommendation/post?"+q.Encode(), nil, RoleUser)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"requesterEmail":"cgaucho@ucsb.edu","professorEmail":"phtcon@ucsb.edu","explanation":"BS/MS program","dateRequested":"2022-04-20","dateNeeded":"2022-05-01","done":false}`, rec.Body.String())

	rec = perform(t, h, http.MethodPost, "/api/Recommendation/post?"+q.Encode(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = perform(t, h, http.MethodDelete, "/api/Recommendation?id=1", nil, RoleUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	store.AssertNumberOfCalls(t, "Save", 1)
}

func TestPolicyOverrideOpensDeleteToUsers(t *testing.T) {
	store := &mockStore[Organization, string]{}
	h := newTestRouter(NewResource(organizations, store, Policy{OpDelete: RoleUser}))
	krc := Organization{OrgCode: "krc", OrgTranslationShort: "korean radio cl", OrgTranslation: "korean radio club"}
	store.On("FindByID", mock.Anything, "krc").Return(krc, true, nil)
	store.On("Delete", mock.Anything, krc).Return(nil)

	rec := perform(t, h, http.MethodDelete, "/api/UCSBOrganization?orgCode=krc", nil, RoleUser)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"UCSBOrganization with id krc deleted"}`, rec.Body.String())
}

func TestCreateOrganizationRequiresOrgCode(t *testing.T) {
	store := &mockStore[Organization, string]{}
	h := newTestRouter(NewResource(organizations, store, nil))
	q := url.Values{"orgCode": {""}, "orgTranslation": {"x"}, "orgTranslationShort": {"x"}, "inactive": {"false"}}

	rec := perform(t, h, http.MethodPost, "/api/UCSBOrganization/post?"+q.Encode(), nil, RoleAdmin)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "parameter 'orgCode' must not be empty", decodeError(t, rec).Message)
	assert.Empty(t, store.Calls)
}

func TestRequestIDIsEchoed(t *testing.T) {
	_, h := newReviewResource()
	req := httptest.NewRequest(http.MethodGet, "/api/MenuItemReview/all", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}
