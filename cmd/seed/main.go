package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/grocerly/grocerly-backend/config"
	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	"github.com/grocerly/grocerly-backend/internal/db"
	"github.com/grocerly/grocerly-backend/internal/report"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/util"
	"gorm.io/gorm"
)

func main() {
	file := flag.String("file", "", "XLSX workbook in the export layout to import as pending applications")
	adminEmail := flag.String("admin-email", "", "create or promote this account to master admin")
	adminPassword := flag.String("admin-password", "", "password for a newly created master admin")
	adminName := flag.String("admin-name", "Grocerly Admin", "display name for a newly created master admin")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	if *file == "" && *adminEmail == "" {
		fmt.Println("Usage: seed [-file applications.xlsx] [-admin-email a@b.c -admin-password secret] [-yes]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	userRepo := repository.NewUserRepository(db.GetDB())

	if *adminEmail != "" {
		if err := ensureMasterAdmin(userRepo, *adminEmail, *adminPassword, *adminName); err != nil {
			log.Fatal("Failed to bootstrap admin:", err)
		}
	}

	if *file != "" {
		if err := importApplications(cfg, userRepo, *file, *yes); err != nil {
			log.Fatal("Import failed:", err)
		}
	}
}

func ensureMasterAdmin(userRepo repository.UserRepository, email, password, name string) error {
	existing, err := userRepo.FindByEmail(email)
	switch {
	case err == nil:
		if err := userRepo.UpdateRole(existing.ID, model.RoleMasterAdmin); err != nil {
			return err
		}
		fmt.Printf("Promoted %s to master admin\n", existing.Email)
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if err := util.CheckPasswordStrength(password); err != nil {
		return err
	}
	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Name:         name,
		Role:         model.RoleMasterAdmin,
		Status:       model.UserStatusActive,
	}
	if err := userRepo.Create(user); err != nil {
		return err
	}
	fmt.Printf("Created master admin %s\n", user.Email)
	return nil
}

func importApplications(cfg *config.Config, userRepo repository.UserRepository, path string, yes bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", path)
	result, err := report.ReadApplications(f)
	if err != nil {
		return err
	}
	for _, problem := range result.Problems {
		fmt.Println("  skipped:", problem)
	}
	fmt.Printf("Applications to import: %d (skipped %d)\n", len(result.Applications), result.Skipped)

	if len(result.Applications) == 0 {
		return nil
	}
	if !yes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return nil
		}
	}

	database := db.GetDB()
	notifications := service.NewNotificationService(repository.NewNotificationRepository(database), userRepo)
	applications := service.NewApplicationService(
		database,
		repository.NewApplicationRepository(database),
		userRepo,
		repository.NewStoreRepository(database),
		notifications,
		nil,
		nil,
		nil,
	)

	imported, duplicates := 0, 0
	meta := service.RequestMeta{UserAgent: "grocerly-seed"}
	for _, app := range result.Applications {
		if _, err := applications.Submit(context.Background(), app, meta); err != nil {
			if errors.Is(err, service.ErrDuplicateApplication) {
				duplicates++
				continue
			}
			return fmt.Errorf("import %s: %w", app.Email, err)
		}
		imported++
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Imported: %d, already present: %d\n", imported, duplicates)
	return nil
}
