package database

import (
	"swifttasks-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN (Supabase/Postgres pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind PgBouncer-style poolers.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// Models lists every table the service owns, parents before children.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Team{},
		&domain.Invitation{},
		&domain.Project{},
		&domain.Board{},
		&domain.Column{},
		&domain.Item{},
		&domain.DocSpace{},
		&domain.DocPage{},
		&domain.TodoList{},
		&domain.TodoItem{},
		&domain.CalendarEvent{},
		&domain.Notification{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
