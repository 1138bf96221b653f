package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/SirZenith/taskmon/api"
	"github.com/SirZenith/taskmon/database"
	"github.com/SirZenith/taskmon/network"
	"github.com/SirZenith/taskmon/usertask"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	db, err := database.Open(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	server := httptest.NewServer(api.NewServer(usertask.NewService(db), "").Handler())
	t.Cleanup(server.Close)

	return server
}

func TestSaveAndList(t *testing.T) {
	server := newBackend(t)

	httpClient, err := network.NewHTTPClient(network.Options{})
	require.NoError(t, err)

	c := NewUserTasksAPI(server.URL+"/", httpClient)
	ctx := context.Background()

	rows, err := c.SaveUserTask(ctx, usertask.SaveParams{UserAddress: "0xabc", TaskID: "0x02", BlockNumber: 20})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0].ID)

	_, err = c.SaveUserTask(ctx, usertask.SaveParams{UserAddress: "0xabc", TaskID: "0x01", BlockNumber: 10})
	require.NoError(t, err)

	tasks, err := c.GetTasksByOwner(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "0x01", tasks[0].TaskID)
	assert.Equal(t, "0x02", tasks[1].TaskID)

	none, err := c.GetTasksByOwner(ctx, "0xnobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBadRequest(t *testing.T) {
	server := newBackend(t)
	c := NewUserTasksAPI(server.URL, nil)

	_, err := c.SaveUserTask(context.Background(), usertask.SaveParams{UserAddress: "0xabc"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadRequest))
	assert.Contains(t, err.Error(), "taskId")
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		code int
		body string
		want error
	}{
		{http.StatusNotFound, "", ErrNotFound},
		{http.StatusInternalServerError, `{"error":"database is locked"}`, ErrInternalServerError},
		{http.StatusBadGateway, "upstream down", ErrUnknownError},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.code), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.body != "" && tc.body[0] == '{' {
					w.Header().Set("Content-Type", "application/json")
				}
				w.WriteHeader(tc.code)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewUserTasksAPI(server.URL, nil).GetTasksByOwner(context.Background(), "0xabc")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), err.Error())
		})
	}
}

func TestHealth(t *testing.T) {
	server := newBackend(t)

	// httptest server is not started through Server.Start, so it reports
	// unavailable
	err := NewUserTasksAPI(server.URL, nil).Health(context.Background())
	assert.Error(t, err)
}
