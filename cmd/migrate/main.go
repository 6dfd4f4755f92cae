package main

import (
	"log"

	"idealab-be/internal/config"
	"idealab-be/internal/model"
	"idealab-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Starting GORM migration...")

	color.Yellow("Step 1: Extensions")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		color.Red("Warn: Failed to create pgcrypto: %v. Continuing...", err)
	}

	models := []interface{}{
		&model.Role{},
		&model.User{},
		&model.Idea{},
		&model.StatusUpdate{},
		&model.Comment{},
		&model.OutboxEvent{},
		&model.NotificationType{},
		&model.Notification{},
		&model.UserNotificationPreference{},
	}

	color.Yellow("Step 2: AutoMigrate for %d tables", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		log.Fatal(err)
	}

	color.Yellow("Step 3: Constraints and triggers")
	postMigrationSQL := []string{
		`DO $$ BEGIN
		   ALTER TABLE ideas ADD CONSTRAINT chk_ideas_stage
		   CHECK (stage IN ('discovery','basic_validation','tech_validation','leadership_pitch','mvp','rejected'));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,

		`DO $$ BEGIN
		   ALTER TABLE ideas ADD CONSTRAINT chk_ideas_category
		   CHECK (category IN ('technology','process','product','service','other'));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,

		// Only the creation record has no previous stage.
		`DO $$ BEGIN
		   ALTER TABLE status_updates ADD CONSTRAINT chk_status_updates_creation
		   CHECK ((sequence = 1) = (previous_stage IS NULL));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,

		`CREATE OR REPLACE FUNCTION forbid_status_update_mutation() RETURNS trigger LANGUAGE plpgsql AS $$
		 BEGIN
		   RAISE EXCEPTION 'status_updates is append-only';
		 END; $$;`,

		`DROP TRIGGER IF EXISTS trg_status_updates_append_only ON status_updates;`,
		`CREATE TRIGGER trg_status_updates_append_only
		 BEFORE UPDATE OR DELETE ON status_updates
		 FOR EACH ROW EXECUTE FUNCTION forbid_status_update_mutation();`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Red("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	color.Green("Success: Database migration completed.")
}
