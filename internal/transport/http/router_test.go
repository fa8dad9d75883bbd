package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/service/table"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRounds struct {
	records []domain.RoundRecord
	err     error
	limit   int
}

func (s *stubRounds) ListRounds(_ context.Context, _ string, limit int) ([]domain.RoundRecord, error) {
	s.limit = limit
	return s.records, s.err
}

type server struct {
	router *gin.Engine
	tables *table.Manager
	rounds *stubRounds
}

func newServer(t *testing.T) *server {
	t.Helper()
	tables := table.NewManager(table.Options{Logger: zerolog.Nop()})
	rounds := &stubRounds{}
	router := NewRouter(RouterConfig{
		Tables:         NewTableHandler(tables, "secret", time.Hour, zerolog.Nop()),
		Rounds:         NewRoundHandler(rounds),
		AllowedOrigins: []string{"http://localhost:5173"},
	})
	return &server{router: router, tables: tables, rounds: rounds}
}

func (s *server) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) createTable(t *testing.T, setup any) createTableResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/tables", "", setup)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp createTableResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateAndGetTable(t *testing.T) {
	s := newServer(t)

	created := s.createTable(t, nil)
	assert.NotEmpty(t, created.TableID)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, 7, created.State.Columns)
	assert.Equal(t, 6, created.State.Rows)

	w := s.do(t, http.MethodGet, "/api/tables/"+created.TableID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state domain.TableState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, created.TableID, state.TableID)
	assert.Equal(t, domain.StatusAwaitingMove, state.Status)

	w = s.do(t, http.MethodGet, "/api/tables", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var states []domain.TableState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &states))
	assert.Len(t, states, 1)

	w = s.do(t, http.MethodGet, "/api/tables/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, table.CodeTableNotFound, errorCode(t, w))
}

func TestCreateTableRejectsBadSetup(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodPost, "/api/tables", "", map[string]any{"columns": 3, "rows": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, table.CodeInvalidGeometry, errorCode(t, w))

	w = s.do(t, http.MethodPost, "/api/tables", "", map[string]any{"tokens": []string{"x", "x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, table.CodeInvalidPlayers, errorCode(t, w))
}

func TestCreateTableRejectsOversizedBoards(t *testing.T) {
	s := newServer(t)

	for _, body := range []map[string]any{
		{"columns": int64(1) << 40, "rows": 4},
		{"columns": 1000000, "rows": 4},
		{"columns": 7, "rows": table.DefaultMaxRows + 1},
	} {
		w := s.do(t, http.MethodPost, "/api/tables", "", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", body)
		assert.Equal(t, table.CodeInvalidGeometry, errorCode(t, w))
	}
	assert.Empty(t, s.tables.List())
}

func TestMovesRequireTableToken(t *testing.T) {
	s := newServer(t)
	a := s.createTable(t, nil)
	b := s.createTable(t, nil)

	w := s.do(t, http.MethodPost, "/api/tables/"+a.TableID+"/moves", "", map[string]int{"column": 0})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/tables/"+a.TableID+"/moves", b.Token, map[string]int{"column": 0})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlayToWinAndReset(t *testing.T) {
	s := newServer(t)
	created := s.createTable(t, map[string]any{"tokens": []string{"A", "B"}})
	path := "/api/tables/" + created.TableID

	var resp moveResponse
	for _, c := range []int{0, 6, 1, 6, 2, 6, 3} {
		w := s.do(t, http.MethodPost, path+"/moves", created.Token, map[string]int{"column": c})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	assert.Equal(t, domain.StatusWon, resp.Move.Result.Status)
	assert.Equal(t, domain.Token("A"), resp.Move.Result.Token)
	require.NotNil(t, resp.Move.Result.Line)
	assert.Equal(t, domain.Horizontal, resp.Move.Result.Line.Direction)

	w := s.do(t, http.MethodPost, path+"/moves", created.Token, map[string]int{"column": 4})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, table.CodeGameOver, errorCode(t, w))

	w = s.do(t, http.MethodGet, "/api/highscores", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var scores []domain.HighScore
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scores))
	require.Len(t, scores, 1)
	assert.Equal(t, "A", scores[0].Initials)

	w = s.do(t, http.MethodPost, path+"/reset", created.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state domain.TableState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 2, state.Round)
	assert.Equal(t, 0, state.MoveCount)
}

func TestMoveRejections(t *testing.T) {
	s := newServer(t)
	created := s.createTable(t, map[string]any{"columns": 4, "rows": 4})
	path := "/api/tables/" + created.TableID + "/moves"

	w := s.do(t, http.MethodPost, path, created.Token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errorCode(t, w))

	w = s.do(t, http.MethodPost, path, created.Token, map[string]int{"column": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, table.CodeInvalidColumn, errorCode(t, w))

	for i := 0; i < 4; i++ {
		w = s.do(t, http.MethodPost, path, created.Token, map[string]int{"column": 0})
		require.Equal(t, http.StatusOK, w.Code)
	}
	w = s.do(t, http.MethodPost, path, created.Token, map[string]int{"column": 0})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, table.CodeColumnFull, errorCode(t, w))
}

func TestDeleteTable(t *testing.T) {
	s := newServer(t)
	created := s.createTable(t, nil)

	w := s.do(t, http.MethodDelete, "/api/tables/"+created.TableID, created.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, ok := s.tables.Get(created.TableID)
	assert.False(t, ok)

	w = s.do(t, http.MethodGet, "/api/tables/"+created.TableID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/tables/"+created.TableID+"/moves", created.Token, map[string]int{"column": 0})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, table.CodeTableNotFound, errorCode(t, w))

	w = s.do(t, http.MethodDelete, "/api/tables/"+created.TableID, created.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMalformedTableIDIsNotFound(t *testing.T) {
	s := newServer(t)
	created := s.createTable(t, nil)

	w := s.do(t, http.MethodPost, "/api/tables/not-a-table/moves", created.Token, map[string]int{"column": 0})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, table.CodeTableNotFound, errorCode(t, w))
}

func TestListRounds(t *testing.T) {
	s := newServer(t)
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.rounds.records = []domain.RoundRecord{{
		TableID: "t1", Round: 1, Status: domain.StatusDraw, Tokens: []domain.Token{"a", "b"},
		MoveCount: 16, StartedAt: started, FinishedAt: started.Add(30 * time.Second),
	}}

	w := s.do(t, http.MethodGet, "/api/tables/t1/rounds?limit=500", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxRoundLimit, s.rounds.limit)

	var items []roundItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, 30, items[0].DurationSeconds)
	assert.Equal(t, "draw", items[0].Status)

	w = s.do(t, http.MethodGet, "/api/tables/t1/rounds?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.rounds.err = errors.New("db down")
	w = s.do(t, http.MethodGet, "/api/tables/t1/rounds", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, defaultRoundLimit, s.rounds.limit)
}

func TestListRoundsWithoutArchive(t *testing.T) {
	handler := NewRoundHandler(nil)
	router := gin.New()
	router.GET("/rounds/:id", handler.ListRounds)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rounds/t1", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
