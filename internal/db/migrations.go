package db

// Models lists every persisted model, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&UserProfile{},
		&Category{},
		&Book{},
		&Order{},
		&OrderItem{},
		&Review{},
	}
}

// RunMigrations runs all database migrations.
func RunMigrations(db *DB) error {
	return db.AutoMigrate(Models()...)
}
