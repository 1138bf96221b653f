package database

import (
	"fmt"
	"sort"

	"github.com/SirZenith/taskmon/database/data_model"
	"github.com/charmbracelet/log"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Maps table name to a pointer to an empty model value of that table.
var modelFactories = map[string]func() any{
	data_model.UserTask{}.TableName(): func() any { return &data_model.UserTask{} },
}

// Open connects to sqlite database at given path, and migrates schema of all
// known models.
func Open(filePath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(filePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		if db != nil {
			closeQuietly(db)
		}
		return nil, fmt.Errorf("failed to connect to database %s: %s", filePath, err)
	}

	if err = Migrate(db); err != nil {
		closeQuietly(db)
		return nil, err
	}

	log.Debugf("database opened: %s", filePath)

	return db, nil
}

func closeQuietly(db *gorm.DB) {
	if err := Close(db); err != nil {
		log.Debugf("%s", err)
	}
}

// Migrate auto migrates schema of all known models.
func Migrate(db *gorm.DB) error {
	models := []any{}
	for _, name := range TableNames() {
		models = append(models, modelFactories[name]())
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("database migration failed: %s", err)
	}

	return nil
}

func Close(db *gorm.DB) error {
	inner, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to close database, can't read inner data: %s", err)
	}

	err = inner.Close()
	if err != nil {
		return fmt.Errorf("failed to close inner database: %s", err)
	}

	return nil
}

// GetModel returns a pointer to a new model value for given table, nil is
// returned for unknown table name.
func GetModel(tableName string) any {
	factory, ok := modelFactories[tableName]
	if !ok {
		return nil
	}
	return factory()
}

// TableNames returns name of all known tables in sorted order.
func TableNames() []string {
	names := make([]string, 0, len(modelFactories))
	for name := range modelFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
