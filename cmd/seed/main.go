package main

import (
	"context"
	"fmt"
	"log"

	"shindi/internal/config"
	"shindi/internal/logger"
	"shindi/internal/model"
	"shindi/internal/repository"
)

// Seeds the demo catalog: two projects from one developer, 30 units each.
// Wipes any existing catalog rows first.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	store, err := repository.NewPostgresStore(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		logg.Fatal("failed to connect to database", "error", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		logg.Fatal("failed to apply schema", "error", err)
	}
	if err := store.ResetCatalog(ctx); err != nil {
		logg.Fatal("failed to reset catalog", "error", err)
	}

	const developer = "Black Sea Development Group"

	greenHillsCompletion := "2027-03"
	projects := []seedProject{
		{
			project: model.Project{
				ProjectName:        "Palm Residence",
				City:               "Batumi",
				Neighborhood:       "New Boulevard",
				ConstructionStatus: model.ConstructionCompleted,
				DeveloperName:      developer,
				PaymentPlans:       model.StringList{"full payment", "36-month installment"},
			},
			projectID:  "palm-residence-batumi",
			units:      30,
			pricePerM2: 1400,
			seaView:    true,
		},
		{
			project: model.Project{
				ProjectName:        "Green Hills",
				City:               "Tbilisi",
				Neighborhood:       "Saburtalo",
				ConstructionStatus: model.ConstructionOffPlan,
				ExpectedCompletion: &greenHillsCompletion,
				DeveloperName:      developer,
				PaymentPlans:       model.StringList{"full payment", "36-month installment"},
			},
			projectID:  "green-hills-tbilisi",
			units:      30,
			pricePerM2: 1100,
			seaView:    false,
		},
	}

	total := 0
	for _, sp := range projects {
		if err := store.InsertProject(ctx, &sp.project); err != nil {
			logg.Fatal("failed to insert project", "project", sp.project.ProjectName, "error", err)
		}
		apartments := buildApartments(sp)
		if err := store.InsertApartments(ctx, apartments); err != nil {
			logg.Fatal("failed to insert apartments", "project", sp.project.ProjectName, "error", err)
		}
		total += len(apartments)
		logg.Info("project seeded", "project", sp.project.ProjectName, "units", len(apartments))
	}

	fmt.Printf("Seeded %d projects, %d apartments\n", len(projects), total)
}

type seedProject struct {
	project    model.Project
	projectID  string
	units      int
	pricePerM2 float64
	seaView    bool
}

// buildApartments generates a spread of unit sizes, floors and views so that
// every preference predicate has both matching and non-matching rows.
func buildApartments(sp seedProject) []model.Apartment {
	apartments := make([]model.Apartment, 0, sp.units)
	for i := 0; i < sp.units; i++ {
		area := 38 + float64(i)*1.5
		price := area * sp.pricePerM2
		down := price * 0.20
		monthly := (price - down) / 36

		view := "city"
		if sp.seaView && i%3 == 0 {
			view = "sea"
		}

		hasBalcony := i%4 != 0
		var balconySize *float64
		if hasBalcony {
			size := 6 + float64(i%4)
			balconySize = &size
		}

		availability := model.AvailabilityAvailable
		if i%7 == 6 {
			availability = model.AvailabilityReserved
		}

		apartments = append(apartments, model.Apartment{
			ProjectID:             sp.projectID,
			ProjectName:           sp.project.ProjectName,
			City:                  sp.project.City,
			Neighborhood:          sp.project.Neighborhood,
			TotalArea:             area,
			Rooms:                 (i % 3) + 1,
			Floor:                 (i % 15) + 1,
			ViewType:              view,
			HasBalcony:            hasBalcony,
			BalconySize:           balconySize,
			TotalPrice:            price,
			MinInitialInstallment: down,
			MonthlyPayment:        monthly,
			InstallmentDuration:   36,
			AvailabilityStatus:    availability,
			ConstructionStatus:    sp.project.ConstructionStatus,
			ExpectedCompletion:    sp.project.ExpectedCompletion,
			DeveloperName:         sp.project.DeveloperName,
		})
	}
	return apartments
}
