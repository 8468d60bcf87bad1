package database

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/utils/auth"
	"gorm.io/gorm"
)

// RunSeeds populates a fresh database with an admin user, the standard
// subscription plans and one sample case. Every seed is idempotent.
func RunSeeds(db *gorm.DB) error {
	if err := seedAdmin(db); err != nil {
		return err
	}
	if err := seedPlans(db); err != nil {
		return err
	}
	if err := seedSampleCase(db); err != nil {
		return err
	}
	return nil
}

// seedAdmin creates a staff account from ADMIN_PHONE and ADMIN_PASSWORD.
// Skipped when either variable is missing or the phone already exists.
func seedAdmin(db *gorm.DB) error {
	phone := os.Getenv("ADMIN_PHONE")
	password := os.Getenv("ADMIN_PASSWORD")
	if phone == "" || password == "" {
		log.Println("Seed: ADMIN_PHONE or ADMIN_PASSWORD not set, skipping admin user")
		return nil
	}

	var existing model.User
	err := db.Where("phone = ?", phone).First(&existing).Error
	if err == nil {
		log.Println("Seed: admin user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("seed: failed to check admin user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("seed: failed to hash admin password: %w", err)
	}

	admin := model.User{
		Phone:        phone,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed: failed to create admin user: %w", err)
	}

	log.Printf("Seed: created admin user %s", phone)
	return nil
}

func seedPlans(db *gorm.DB) error {
	plans := []model.SubscriptionPlan{
		{Name: "Monthly", DurationType: model.SubscriptionMonthly, DurationDays: 30, Price: 490000, OrderIndex: 1},
		{Name: "Quarterly", DurationType: model.SubscriptionQuarterly, DurationDays: 90, Price: 1290000, DiscountPercent: 10, OrderIndex: 2},
		{Name: "Six Months", DurationType: model.SubscriptionBiannual, DurationDays: 180, Price: 2290000, DiscountPercent: 15, IsPopular: true, OrderIndex: 3},
		{Name: "Yearly", DurationType: model.SubscriptionYearly, DurationDays: 365, Price: 3990000, DiscountPercent: 25, OrderIndex: 4},
	}

	for _, plan := range plans {
		var count int64
		if err := db.Model(&model.SubscriptionPlan{}).Where("name = ?", plan.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("seed: failed to check plan %q: %w", plan.Name, err)
		}
		if count > 0 {
			continue
		}
		plan.IsActive = true
		if err := db.Create(&plan).Error; err != nil {
			return fmt.Errorf("seed: failed to create plan %q: %w", plan.Name, err)
		}
		log.Printf("Seed: created plan %q", plan.Name)
	}

	return nil
}

// seedSampleCase creates one published demo case with default lab tests
// and a small answer key so a fresh install is immediately usable.
func seedSampleCase(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Case{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed: failed to count cases: %w", err)
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		category := model.CaseCategory{
			Name:        "Hematology",
			Slug:        "hematology",
			Description: "Blood smear and CBC interpretation cases",
		}
		if err := tx.Create(&category).Error; err != nil {
			return fmt.Errorf("seed: failed to create category: %w", err)
		}

		sample := model.Case{
			CategoryID:       &category.ID,
			Title:            "Lethargic dog with pale mucous membranes",
			Slug:             "lethargic-dog-with-pale-mucous-membranes",
			Summary:          "A 4-year-old mixed breed dog presented with weakness and pallor.",
			History:          "The owner reports three days of lethargy, reduced appetite and dark urine. Physical exam shows pale mucous membranes, tachycardia and mild icterus.",
			CorrectDiagnosis: "Immune-mediated hemolytic anemia",
			Explanation:      "Spherocytes with marked regenerative response and a positive saline agglutination test point to immune-mediated destruction of erythrocytes.",
			Published:        true,
		}
		if err := tx.Create(&sample).Error; err != nil {
			return fmt.Errorf("seed: failed to create sample case: %w", err)
		}

		groups := []struct {
			gType   model.LabTestType
			name    string
			rng     string
			order   int
			correct map[string]bool
		}{
			{model.LabTestTypeCBC, "Complete Blood Count", "Normal ranges vary by species", 1,
				map[string]bool{"Mild regenerative anemia": true}},
			{model.LabTestTypeChem, "Clinical Chemistry Panel", "Normal ranges vary by species", 2,
				map[string]bool{"High liver enzymes": true}},
			{model.LabTestTypeMorpho, "Morphological Changes", "No abnormalities expected", 3,
				map[string]bool{"Spherocytes": true, "Autoagglutination": true}},
		}

		for _, g := range groups {
			group := model.LabTestGroup{
				CaseID:      sample.ID,
				Type:        g.gType,
				Name:        g.name,
				NormalRange: g.rng,
				OrderIndex:  g.order,
			}
			if err := tx.Create(&group).Error; err != nil {
				return fmt.Errorf("seed: failed to create %s group: %w", g.gType, err)
			}

			var options []model.ObservationOption
			for i, text := range model.DefaultOptionsForType(g.gType) {
				options = append(options, model.ObservationOption{
					LabTestGroupID: group.ID,
					Text:           text,
					IsCorrect:      g.correct[text],
					OrderIndex:     i,
				})
			}
			if len(options) > 0 {
				if err := tx.Create(&options).Error; err != nil {
					return fmt.Errorf("seed: failed to create %s options: %w", g.gType, err)
				}
			}
		}

		log.Printf("Seed: created sample case %q", sample.Title)
		return nil
	})
}
