// Package usertask keeps record of task ids scheduled by each wallet address.
package usertask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SirZenith/taskmon/database/data_model"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var ErrInvalidParams = errors.New("invalid user task parameters")

// SaveParams is the payload for creating a user task record.
type SaveParams struct {
	UserAddress string `json:"userAddress" validate:"min=1"`
	TaskID      string `json:"taskId" validate:"min=1"`
	BlockNumber int64  `json:"blockNumber" validate:"gt=0"`
}

type Service struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		db:       db,
		validate: validator.New(),
	}
}

// Validate checks given parameters, returned error wraps ErrInvalidParams.
func (s *Service) Validate(params SaveParams) error {
	err := s.validate.Struct(params)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %s", ErrInvalidParams, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		msgs = append(msgs, describeFieldError(fieldErr))
	}

	return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(msgs, "; "))
}

func describeFieldError(fieldErr validator.FieldError) string {
	name := jsonFieldName(fieldErr.StructField())

	switch fieldErr.Tag() {
	case "min":
		return fmt.Sprintf("%s must not be empty", name)
	case "gt":
		return fmt.Sprintf("%s must be a positive integer", name)
	default:
		return fmt.Sprintf("%s failed on %s", name, fieldErr.Tag())
	}
}

func jsonFieldName(structField string) string {
	switch structField {
	case "UserAddress":
		return "userAddress"
	case "TaskID":
		return "taskId"
	case "BlockNumber":
		return "blockNumber"
	default:
		return structField
	}
}

// Save validates and inserts a new user task record. Inserted rows are
// returned.
func (s *Service) Save(ctx context.Context, params SaveParams) ([]data_model.UserTask, error) {
	if err := s.Validate(params); err != nil {
		return nil, err
	}

	task := data_model.UserTask{
		UserAddress: strings.ToLower(params.UserAddress),
		TaskID:      params.TaskID,
		BlockNumber: params.BlockNumber,
	}

	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, fmt.Errorf("failed to save user task: %s", err)
	}

	return []data_model.UserTask{task}, nil
}

// ListByOwner returns all tasks recorded for given address ordered by block
// number. Addresses are stored lower-cased so lookup ignores letter case.
func (s *Service) ListByOwner(ctx context.Context, userAddress string) ([]data_model.UserTask, error) {
	tasks := []data_model.UserTask{}

	err := s.db.WithContext(ctx).
		Where("user_address = ?", strings.ToLower(userAddress)).
		Order("block_number ASC").
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks of %s: %s", userAddress, err)
	}

	return tasks, nil
}
