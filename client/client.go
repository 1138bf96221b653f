// Package client wraps HTTP API of user task backend.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/SirZenith/taskmon/database/data_model"
	"github.com/SirZenith/taskmon/usertask"
	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
)

var (
	// ErrBadRequest defines the "bad request" error.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound defines the "not found" error.
	ErrNotFound = errors.New("not found")
	// ErrInternalServerError defines the "internal server error" error.
	ErrInternalServerError = errors.New("internal server error")
	// ErrUnknownError defines the "unknown error" error.
	ErrUnknownError = errors.New("unknown error")
)

const (
	routeUserTasks     = "/user-tasks"
	routeTasksOfOwner  = "/user-tasks/{userAddress}"
	contentTypeJSON    = "application/json"
	headerContentType  = "Content-Type"
	maxErrorBodyLength = 200
)

type errorResponse struct {
	Error string `json:"error"`
}

// UserTasksAPI is a client of user task backend.
type UserTasksAPI struct {
	client *resty.Client
}

// NewUserTasksAPI returns a client talking to backend at baseURL. A nil
// httpClient means http.DefaultClient.
func NewUserTasksAPI(baseURL string, httpClient *http.Client) *UserTasksAPI {
	var client *resty.Client
	if httpClient != nil {
		client = resty.NewWithClient(httpClient)
	} else {
		client = resty.New()
	}

	client.SetHostURL(strings.TrimRight(baseURL, "/"))
	client.SetHeader("Accept", contentTypeJSON)

	return &UserTasksAPI{client: client}
}

// BaseURL returns host URL requests are sent to.
func (api *UserTasksAPI) BaseURL() string {
	return api.client.HostURL
}

// SaveUserTask records a scheduled task, returns the inserted rows.
func (api *UserTasksAPI) SaveUserTask(ctx context.Context, params usertask.SaveParams) ([]data_model.UserTask, error) {
	rows := []data_model.UserTask{}

	resp, err := api.client.R().
		SetContext(ctx).
		SetHeader(headerContentType, contentTypeJSON).
		SetBody(params).
		SetResult(&rows).
		SetError(&errorResponse{}).
		Post(routeUserTasks)
	if err != nil {
		return nil, errors.Wrap(err, "saving user task")
	}

	if err := interpretResponse(resp); err != nil {
		return nil, err
	}

	return rows, nil
}

// GetTasksByOwner lists tasks recorded for userAddress, ordered by block
// number.
func (api *UserTasksAPI) GetTasksByOwner(ctx context.Context, userAddress string) ([]data_model.UserTask, error) {
	rows := []data_model.UserTask{}

	resp, err := api.client.R().
		SetContext(ctx).
		SetPathParam("userAddress", userAddress).
		SetResult(&rows).
		SetError(&errorResponse{}).
		Get(routeTasksOfOwner)
	if err != nil {
		return nil, errors.Wrapf(err, "listing tasks of %s", userAddress)
	}

	if err := interpretResponse(resp); err != nil {
		return nil, err
	}

	return rows, nil
}

// Health checks whether backend is serving.
func (api *UserTasksAPI) Health(ctx context.Context) error {
	resp, err := api.client.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return errors.Wrap(err, "checking backend health")
	}

	if resp.StatusCode() != http.StatusOK {
		return errors.Newf("backend unhealthy: %s", resp.Status())
	}

	return nil
}

func interpretResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	msg := ""
	if errRes, ok := resp.Error().(*errorResponse); ok && errRes != nil {
		msg = errRes.Error
	}
	if msg == "" {
		msg = strings.TrimSpace(string(resp.Body()))
		if len(msg) > maxErrorBodyLength {
			msg = msg[:maxErrorBodyLength]
		}
	}

	switch resp.StatusCode() {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Request.URL)
	case http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", ErrInternalServerError, msg)
	}

	return fmt.Errorf("%w: %d %s", ErrUnknownError, resp.StatusCode(), msg)
}
