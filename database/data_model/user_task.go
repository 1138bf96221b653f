package data_model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserTaskIDPrefix is prepended to generated user task record ids.
const UserTaskIDPrefix = "user_task_"

// UserTask associates a scheduled task id with the wallet address that owns
// it and the block number the task was recorded at.
type UserTask struct {
	ID          string    `gorm:"primaryKey;size:255" json:"id"`
	UserAddress string    `gorm:"not null;index" json:"userAddress"`
	TaskID      string    `gorm:"not null" json:"taskId"`
	BlockNumber int64     `gorm:"not null" json:"blockNumber"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
}

func (UserTask) TableName() string {
	return "user_tasks"
}

func NewUserTaskID() string {
	return UserTaskIDPrefix + uuid.NewString()
}

func (task *UserTask) BeforeCreate(_ *gorm.DB) error {
	if task.ID == "" {
		task.ID = NewUserTaskID()
	}
	return nil
}

// Upsert inserts task record, existing record with the same id gets
// overwritten.
func (task *UserTask) Upsert(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(task).Error
}
