package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SirZenith/taskmon/database"
	"github.com/SirZenith/taskmon/database/data_model"
	"github.com/SirZenith/taskmon/usertask"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, bindAddress string) *Server {
	db, err := database.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	return NewServer(usertask.NewService(db), bindAddress)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	return rec
}

func TestHealthzBeforeStart(t *testing.T) {
	s := newTestServer(t, "127.0.0.1:0")
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSaveUserTask(t *testing.T) {
	s := newTestServer(t, "127.0.0.1:0")

	rec := do(t, s, http.MethodPost, "/user-tasks", `{"userAddress":"0xabc","taskId":"0x01","blockNumber":120}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rows := []data_model.UserTask{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.True(t, strings.HasPrefix(rows[0].ID, data_model.UserTaskIDPrefix))
	assert.Equal(t, "0xabc", rows[0].UserAddress)
	assert.Equal(t, "0x01", rows[0].TaskID)
	assert.EqualValues(t, 120, rows[0].BlockNumber)
}

func TestSaveUserTaskRejectsInvalidBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing task id", `{"userAddress":"0xabc","blockNumber":1}`, "taskId"},
		{"empty address", `{"userAddress":"","taskId":"0x01","blockNumber":1}`, "userAddress"},
		{"zero block", `{"userAddress":"0xabc","taskId":"0x01","blockNumber":0}`, "blockNumber"},
		{"negative block", `{"userAddress":"0xabc","taskId":"0x01","blockNumber":-3}`, "blockNumber"},
		{"string block", `{"userAddress":"0xabc","taskId":"0x01","blockNumber":"7"}`, ""},
		{"fractional block", `{"userAddress":"0xabc","taskId":"0x01","blockNumber":1.5}`, ""},
		{"malformed json", `{"userAddress":`, ""},
	}

	s := newTestServer(t, "127.0.0.1:0")

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/user-tasks", c.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			res := ErrorResponse{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.NotEmpty(t, res.Error)
			assert.Contains(t, res.Error, c.want)
		})
	}

	rec := do(t, s, http.MethodGet, "/user-tasks/0xabc", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetTasksByOwner(t *testing.T) {
	s := newTestServer(t, "127.0.0.1:0")

	for _, block := range []int{30, 10, 20} {
		body := fmt.Sprintf(`{"userAddress":"0xAbC","taskId":"task-%d","blockNumber":%d}`, block, block)
		require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/user-tasks", body).Code)
	}
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/user-tasks", `{"userAddress":"0xdef","taskId":"x","blockNumber":5}`).Code)

	rec := do(t, s, http.MethodGet, "/user-tasks/0xabc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rows := []data_model.UserTask{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"task-10", "task-20", "task-30"}, []string{rows[0].TaskID, rows[1].TaskID, rows[2].TaskID})
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, "127.0.0.1:0")
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/user-tasks", `{"userAddress":"0xabc","taskId":"0x01","blockNumber":1}`).Code)
	do(t, s, http.MethodGet, "/user-tasks/0xabc", "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "taskmon_user_tasks_saved_total 1")
	assert.Contains(t, body, `taskmon_http_requests_total{code="200",method="POST",path="/user-tasks"} 1`)
	assert.Contains(t, body, `taskmon_http_requests_total{code="200",method="GET",path="/user-tasks/:userAddress"} 1`)
}

func TestRunLifecycle(t *testing.T) {
	s := newTestServer(t, "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		addr := s.Addr()
		if addr == "" {
			return false
		}

		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.False(t, s.healthy.Load())
}

func TestStartFailsOnBusyAddress(t *testing.T) {
	first := newTestServer(t, "127.0.0.1:0")
	require.NoError(t, first.Start())
	defer first.Shutdown(context.Background())

	second := newTestServer(t, first.Addr())
	assert.Error(t, second.Start())
	assert.False(t, second.healthy.Load())
}
