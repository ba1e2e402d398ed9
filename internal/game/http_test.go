package game

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest-edu/shellquest/internal/auth"
)

func newTestHTTP(t *testing.T) (*HTTPHandlers, *auth.Manager) {
	t.Helper()
	reg := newTestRegistry(t, engineSettings())
	tokens := auth.NewManager(auth.ManagerConfig{Secret: []byte("test-secret")})
	return NewHTTPHandlers(reg, tokens, zerolog.Nop()), tokens
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) (string, *View) {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
		View  *View  `json:"view"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token, resp.View
}

func TestHTTPStartMintsAnonymousToken(t *testing.T) {
	handlers, tokens := newTestHTTP(t)

	rec := postJSON(t, handlers.StartLevel, "/v1/game/start", "", map[string]int{"level": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	token, view := decodeView(t, rec)
	require.NotEmpty(t, token, "a start without identity mints one")
	require.NotNil(t, view)
	assert.Equal(t, StateInLevel, view.State)

	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleLearner, claims.Role)
}

func TestHTTPAnswerFlow(t *testing.T) {
	handlers, _ := newTestHTTP(t)

	rec := postJSON(t, handlers.StartLevel, "/v1/game/start", "", map[string]int{"level": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := decodeView(t, rec)

	rec = postJSON(t, handlers.SubmitAnswer, "/v1/game/answer", token, map[string]string{"choice": "A"})
	require.Equal(t, http.StatusOK, rec.Code)
	minted, view := decodeView(t, rec)
	assert.Empty(t, minted, "answers never mint tokens")
	assert.Equal(t, StateAwaitingFeedback, view.State)
	require.NotNil(t, view.Feedback)
	assert.True(t, view.Feedback.Correct)

	rec = postJSON(t, handlers.Advance, "/v1/game/advance", token, struct{}{})
	require.Equal(t, http.StatusOK, rec.Code)
	_, view = decodeView(t, rec)
	assert.Equal(t, StateInLevel, view.State)
	assert.Equal(t, 2, view.QuestionNumber)
}

func TestHTTPAnswerRequiresToken(t *testing.T) {
	handlers, _ := newTestHTTP(t)

	rec := postJSON(t, handlers.SubmitAnswer, "/v1/game/answer", "", map[string]string{"choice": "A"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, handlers.SubmitAnswer, "/v1/game/answer", "not-a-jwt", map[string]string{"choice": "A"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTPLockedLevelForbidden(t *testing.T) {
	handlers, _ := newTestHTTP(t)

	rec := postJSON(t, handlers.StartLevel, "/v1/game/start", "", map[string]int{"level": 3})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "level_locked")
}

func TestHTTPUnknownLevelNotFound(t *testing.T) {
	handlers, _ := newTestHTTP(t)

	rec := postJSON(t, handlers.StartLevel, "/v1/game/start", "", map[string]int{"level": 99})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPBadStartPayload(t *testing.T) {
	handlers, _ := newTestHTTP(t)

	rec := postJSON(t, handlers.StartLevel, "/v1/game/start", "", map[string]int{"level": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/game/start", bytes.NewReader([]byte("{broken")))
	rec2 := httptest.NewRecorder()
	handlers.StartLevel(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestHTTPAdvanceWithoutSessionRecoversToConflict(t *testing.T) {
	handlers, tokens := newTestHTTP(t)
	_, token, err := tokens.IssueLearner()
	require.NoError(t, err)

	rec := postJSON(t, handlers.Advance, "/v1/game/advance", token, struct{}{})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "illegal_state")
}

func TestHTTPViewRefresh(t *testing.T) {
	handlers, _ := newTestHTTP(t)

	rec := postJSON(t, handlers.StartLevel, "/v1/game/start", "", map[string]int{"level": 1})
	token, _ := decodeView(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/v1/game/view", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec2 := httptest.NewRecorder()
	handlers.View(rec2, req)

	require.Equal(t, http.StatusOK, rec2.Code)
	_, view := decodeView(t, rec2)
	assert.Equal(t, StateInLevel, view.State)
	assert.Equal(t, 1, view.QuestionNumber)
}

func TestHTTPEndSession(t *testing.T) {
	handlers, _ := newTestHTTP(t)

	rec := postJSON(t, handlers.StartLevel, "/v1/game/start", "", map[string]int{"level": 1})
	token, _ := decodeView(t, rec)

	rec = postJSON(t, handlers.End, "/v1/game/end", token, struct{}{})
	require.Equal(t, http.StatusOK, rec.Code)

	// The follow-up view hits the no-session conflict path.
	req := httptest.NewRequest(http.MethodGet, "/v1/game/view", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec2 := httptest.NewRecorder()
	handlers.View(rec2, req)
	assert.Equal(t, http.StatusConflict, rec2.Code)
}

func TestHTTPIdempotentResubmission(t *testing.T) {
	handlers, _ := newTestHTTP(t)

	rec := postJSON(t, handlers.StartLevel, "/v1/game/start", "", map[string]int{"level": 1})
	token, _ := decodeView(t, rec)

	rec = postJSON(t, handlers.SubmitAnswer, "/v1/game/answer", token, map[string]string{"choice": "A"})
	_, first := decodeView(t, rec)

	rec = postJSON(t, handlers.SubmitAnswer, "/v1/game/answer", token, map[string]string{"choice": "B"})
	require.Equal(t, http.StatusOK, rec.Code)
	_, second := decodeView(t, rec)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Feedback.Outcome, second.Feedback.Outcome)
}

// Guard against clock skew: the whole flow uses server time, so a client
// cannot stretch its window by lying in the payload.
func TestHTTPClientElapsedIsIgnored(t *testing.T) {
	handlers, _ := newTestHTTP(t)

	rec := postJSON(t, handlers.StartLevel, "/v1/game/start", "", map[string]int{"level": 1})
	token, _ := decodeView(t, rec)

	rec = postJSON(t, handlers.SubmitAnswer, "/v1/game/answer", token, map[string]interface{}{
		"choice":            "A",
		"client_elapsed_ms": int64(4 * time.Hour / time.Millisecond),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	_, view := decodeView(t, rec)
	assert.True(t, view.Feedback.Correct, "server-side elapsed is near zero regardless of the claim")
}
