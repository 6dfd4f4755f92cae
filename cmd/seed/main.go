package main

import (
	"context"
	"log"

	"idealab-be/internal/config"
	"idealab-be/internal/entity"
	"idealab-be/internal/repository/unitofwork"
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

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	color.Cyan("Seeding roles...")
	for _, r := range roleSeeds() {
		if err := uow.RoleRepository().Upsert(ctx, r); err != nil {
			color.Red("Error upserting role '%s': %v", r.Name, err)
			continue
		}
		color.Green("Role: %s", r.Name)
	}

	color.Cyan("Seeding notification types...")
	for _, t := range notificationTypeSeeds() {
		nt := t
		if err := uow.NotificationRepository().UpsertNotificationType(ctx, &nt); err != nil {
			color.Red("Error upserting notification type '%s': %v", nt.Code, err)
			continue
		}
		color.Green("Notification type: %s -> %s", nt.Code, nt.TargetType)
	}

	color.Green("Seeding completed!")
}

func roleSeeds() []*entity.RoleDefinition {
	return []*entity.RoleDefinition{
		{Name: entity.RoleEmployee, DisplayName: "Employee", Description: "Submits ideas and follows their progress"},
		{Name: entity.RoleProductExpert, DisplayName: "Product Expert", Description: "Reviews ideas in discovery and basic validation"},
		{Name: entity.RoleTechExpert, DisplayName: "Tech Expert", Description: "Reviews technical feasibility"},
		{Name: entity.RoleLeader, DisplayName: "Leader", Description: "Decides on leadership pitches"},
		{Name: entity.RoleSuperAdmin, DisplayName: "Super Admin", Description: "May act on any non-terminal stage"},
		{Name: entity.RoleIdealabsCoreTeam, DisplayName: "IdeaLabs Core Team", Description: "Runs the incubation program"},
		{Name: entity.RoleIdeaMentor, DisplayName: "Idea Mentor", Description: "Coaches submitters"},
	}
}
