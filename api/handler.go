package api

import (
	"errors"
	"net/http"

	"github.com/SirZenith/taskmon/usertask"
	"github.com/charmbracelet/log"
	"github.com/labstack/echo"
)

func (s *Server) getHealthz(c echo.Context) error {
	if !s.healthy.Load() {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}

// saveUserTask records a task scheduled by a user. Inserted rows are
// returned as an array.
func (s *Server) saveUserTask(c echo.Context) error {
	var params usertask.SaveParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + bindErrorMessage(err)})
	}

	rows, err := s.service.Save(c.Request().Context(), params)
	if errors.Is(err, usertask.ErrInvalidParams) {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(err))
	} else if err != nil {
		log.Errorf("failed to save user task: %s", err)
		return c.JSON(http.StatusInternalServerError, NewErrorResponse(err))
	}

	s.metrics.tasksSaved.Add(float64(len(rows)))

	return c.JSON(http.StatusOK, rows)
}

func (s *Server) getTasksByOwner(c echo.Context) error {
	userAddress := c.Param("userAddress")

	rows, err := s.service.ListByOwner(c.Request().Context(), userAddress)
	if err != nil {
		log.Errorf("failed to list tasks of %s: %s", userAddress, err)
		return c.JSON(http.StatusInternalServerError, NewErrorResponse(err))
	}

	return c.JSON(http.StatusOK, rows)
}

func bindErrorMessage(err error) string {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if msg, ok := httpErr.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
