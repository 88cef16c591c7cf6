package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cppla/solquest/client"
)

func newTestClient(t *testing.T, handler http.Handler) *client.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return client.New(client.Options{BaseURL: srv.URL, RatePerMinute: 6000}, zap.NewNop().Sugar())
}

func TestLoginOrRegister(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "wallet1", body["wallet_address"])
		assert.NotEmpty(t, body["signature"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"wallet_address": "wallet1",
			"random_name":    "lucky-fox",
			"points":         5,
		})
	}))

	rec, err := c.LoginOrRegister(context.Background(), "wallet1", "c2ln", "tw", "tg")
	require.NoError(t, err)
	assert.Equal(t, "lucky-fox", rec.RandomName)

	cached := c.CurrentUserData()
	require.NotNil(t, cached)
	assert.Equal(t, 5, cached.Points)
}

func TestGetUserDataReplacesCacheWholesale(t *testing.T) {
	responses := []map[string]interface{}{
		{
			"wallet_address":        "wallet1",
			"points":                10,
			"last_tasks_completion": map[string]string{"t1": "2025-06-15T08:00:00.000Z"},
		},
		{
			"wallet_address": "wallet1",
			"points":         20,
		},
	}
	i := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/wallet1", r.URL.Path)
		json.NewEncoder(w).Encode(responses[i])
		i++
	}))

	_, err := c.GetUserData(context.Background(), "wallet1")
	require.NoError(t, err)
	require.Contains(t, c.CurrentUserData().LastTasksCompletion, "t1")

	_, err = c.GetUserData(context.Background(), "wallet1")
	require.NoError(t, err)

	after := c.CurrentUserData()
	assert.Equal(t, 20, after.Points)
	assert.NotContains(t, after.LastTasksCompletion, "t1", "the cache is replaced, never merged")
}

func TestCurrentUserDataReturnsCopy(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"wallet_address": "wallet1", "points": 10})
	}))
	_, err := c.GetUserData(context.Background(), "wallet1")
	require.NoError(t, err)

	c.CurrentUserData().Points = 999
	assert.Equal(t, 10, c.CurrentUserData().Points)
}

func TestCompleteTaskPending(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/complete-task", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
	}))

	res, err := c.CompleteTask(context.Background(), "wallet1", "c2ln", "t1")
	require.NoError(t, err)
	assert.True(t, res.Pending)
	assert.Nil(t, res.Record)
}

func TestCompleteTaskPendingWinsOverErrorField(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "pending", "error": "transient"})
	}))

	res, err := c.CompleteTask(context.Background(), "wallet1", "c2ln", "t1")
	require.NoError(t, err)
	assert.True(t, res.Pending)
}

func TestCompleteTaskImmediateRecord(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"wallet_address":        "wallet1",
			"points":                30,
			"last_tasks_completion": map[string]string{"t1": "2025-06-15T08:00:00.000Z"},
		})
	}))

	res, err := c.CompleteTask(context.Background(), "wallet1", "c2ln", "t1")
	require.NoError(t, err)
	assert.False(t, res.Pending)
	require.NotNil(t, res.Record)
	assert.Equal(t, 30, res.Record.Points)

	cached := c.CurrentUserData()
	require.NotNil(t, cached, "an immediate record replaces the cache")
	assert.Equal(t, 30, cached.Points)
}

func TestCompleteTaskAlreadyCompleted(t *testing.T) {
	for _, msg := range []string{"Task already completed today", "该任务今日已完成"} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"error": msg})
		}))

		_, err := c.CompleteTask(context.Background(), "wallet1", "c2ln", "t1")
		assert.ErrorIs(t, err, client.ErrAlreadyCompleted, msg)
	}
}

func TestCompleteTaskRejection(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid signature"})
	}))

	_, err := c.CompleteTask(context.Background(), "wallet1", "c2ln", "t1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, client.ErrAlreadyCompleted)
	assert.Contains(t, err.Error(), "invalid signature")
}

func TestNonOKStatusCarriesBackendMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Task already completed today"})
	}))

	_, err := c.CompleteTask(context.Background(), "wallet1", "c2ln", "t1")
	assert.ErrorIs(t, err, client.ErrAlreadyCompleted, "the marker is honored on any status code")
}

func TestGetLeaderboard(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leaderboard", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"users": []map[string]interface{}{
				{"walletAddress": "w1", "randomName": "alpha", "points": 50},
			},
			"total": 25,
		})
	}))

	page, err := c.GetLeaderboard(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "alpha", page.Users[0].RandomName)
}

func TestClearUserData(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"wallet_address": "wallet1"})
	}))
	_, err := c.GetUserData(context.Background(), "wallet1")
	require.NoError(t, err)
	require.NotNil(t, c.CurrentUserData())

	c.ClearUserData()
	assert.Nil(t, c.CurrentUserData())
}
