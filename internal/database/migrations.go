package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

type indexSpec struct {
	table   string
	name    string
	columns string
}

// Composite indexes for the marketplace queries. Single-column indexes are
// declared on the models.
var indexes = []indexSpec{
	// Browsing open tasks by category and area
	{"tasks", "idx_tasks_status_category_area", "status, category, area"},
	{"tasks", "idx_tasks_customer_created", "customer_id, created_at"},

	// Offer lookups during accept and helper dashboards
	{"offers", "idx_offers_task_status", "task_id, status"},
	{"offers", "idx_offers_helper_status", "helper_id, status"},

	// Thread timelines
	{"chat_messages", "idx_chat_messages_thread_created", "thread_id, created_at"},
}

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Printf("Index %s already exists, skipping", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, idx.table, idx.columns)
	}

	return nil
}

// MigrateDatabase runs the schema migration followed by index creation
func MigrateDatabase(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		return err
	}

	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
