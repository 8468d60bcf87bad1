package app

import (
	"fmt"
	"os"

	"github.com/vetcaselab/vetcase-api/api"
	"github.com/vetcaselab/vetcase-api/config"
	"github.com/vetcaselab/vetcase-api/database"
	"github.com/vetcaselab/vetcase-api/router"
	"github.com/vetcaselab/vetcase-api/services/cron"
	"gorm.io/gorm"
)

// SetupAndRunServer boots the whole application: env, database,
// migrations, cron jobs, routes, and finally the HTTP listener.
func SetupAndRunServer() error {
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	store, err := database.StartGORM()
	if err != nil {
		print("Check whether Postgres is running\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to run database migrations\n")
		return err
	}

	// Background jobs, unless disabled (tests, one-off commands)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" {
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			print("Warning: failed to get database connection for cron jobs\n")
		} else {
			cronManager = cron.NewCronManager(db)
			if err := cronManager.Start(); err != nil {
				print("Warning: failed to start cron jobs: ", err.Error(), "\n")
			}
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT))

	router.SetupRoutes(server.GetEngine(), store, env)

	return server.Run()
}
