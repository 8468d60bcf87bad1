package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/config"
	"github.com/vetcaselab/vetcase-api/database"
	"github.com/vetcaselab/vetcase-api/handlers"
	admin_handlers "github.com/vetcaselab/vetcase-api/handlers/admin"
	auth_handlers "github.com/vetcaselab/vetcase-api/handlers/auth"
	case_handlers "github.com/vetcaselab/vetcase-api/handlers/casestudy"
	notification_handlers "github.com/vetcaselab/vetcase-api/handlers/notification"
	payment_handlers "github.com/vetcaselab/vetcase-api/handlers/payment"
	progress_handlers "github.com/vetcaselab/vetcase-api/handlers/progress"
	subscription_handlers "github.com/vetcaselab/vetcase-api/handlers/subscription"
	"github.com/vetcaselab/vetcase-api/services"
	"github.com/vetcaselab/vetcase-api/services/sms"
	"github.com/vetcaselab/vetcase-api/services/storage"
	"github.com/vetcaselab/vetcase-api/services/zarinpal"
	"github.com/vetcaselab/vetcase-api/utils/auth"
	"github.com/vetcaselab/vetcase-api/utils/cache"
	"github.com/vetcaselab/vetcase-api/utils/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires services, middleware and handlers onto the app
func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnvironmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "vetcase-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. OTP login and rate limiting will be degraded.", err)
	}

	// SMS delivery falls back to the log in development
	var smsSender sms.Sender = sms.LogSender{}
	if env.SMS_API_KEY != "" {
		smsSender = sms.NewClient(sms.Config{
			APIKey:     env.SMS_API_KEY,
			Sender:     env.SMS_SENDER,
			BaseURL:    env.SMS_BASE_URL,
			OTPPattern: env.SMS_OTP_PATTERN,
		})
	}

	// Object storage is optional; slide uploads 502 without it
	var spaces *storage.SpacesClient
	if env.SPACES_BUCKET != "" {
		spaces, err = storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: env.SPACES_KEY,
			SecretKey: env.SPACES_SECRET,
			Bucket:    env.SPACES_BUCKET,
			Region:    env.SPACES_REGION,
			Endpoint:  env.SPACES_ENDPOINT,
			CDNURL:    os.Getenv("SPACES_CDN_URL"),
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize object storage: %v", err)
		}
	}

	gateway := zarinpal.NewClient(zarinpal.Config{
		MerchantID: env.ZARINPAL_MERCHANT_ID,
		Sandbox:    env.ZARINPAL_SANDBOX,
	})

	// Services
	caseService := services.NewCaseService(db)
	progressService := services.NewProgressService(db)
	subscriptionService := services.NewSubscriptionService(db)
	notificationService := services.NewNotificationService(db)
	paymentService := services.NewPaymentService(db, gateway, subscriptionService, notificationService, env.PAYMENT_CALLBACK_URL)
	gradingEngine := services.NewGradingEngine(services.NewDiagnosisMatcher(env.DIAGNOSIS_MATCHER))
	otpService := services.NewOTPService(redisCache, smsSender)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	subscriptionGate := middleware.NewSubscriptionGate(subscriptionService)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 300,
		RateLimitWindow:   time.Minute,
	})

	if redisCache != nil {
		app.Use(middleware.NewRateLimiter(redisCache).Limit())
	}

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, otpService)
	caseHandler := case_handlers.NewCaseHandler(db, caseService, progressService)
	progressHandler := progress_handlers.NewProgressHandler(db, caseService, progressService, gradingEngine)
	subscriptionHandler := subscription_handlers.NewSubscriptionHandler(db, subscriptionService)
	paymentHandler := payment_handlers.NewPaymentHandler(db, paymentService, subscriptionService)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)
	adminHandler := admin_handlers.NewAdminHandler(db, caseService, spaces)

	app.Get("/health", handlers.HandleCheckHealth(store))

	v1 := app.Group("/api/v1")

	// Auth
	authGroup := v1.Group("/auth")
	authGroup.Post("/otp/request", authHandler.RequestOTP)
	authGroup.Post("/otp/verify", authHandler.VerifyOTP)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.Me)
	authGroup.Patch("/me", authMiddleware.Required(), authHandler.UpdateProfile)

	// Case catalog: listing and categories are public previews, the
	// case detail and submissions sit behind the subscription gate
	cases := v1.Group("/cases")
	cases.Get("/", authMiddleware.Optional(), caseHandler.List)
	cases.Get("/categories", caseHandler.Categories)
	cases.Get("/:slug", authMiddleware.Required(), subscriptionGate.Required(), caseHandler.Get)
	cases.Post("/:id/submit", authMiddleware.Required(), subscriptionGate.Required(), progressHandler.Submit)
	cases.Post("/:id/observations", authMiddleware.Required(), subscriptionGate.Required(), progressHandler.LogObservation)
	cases.Post("/:id/bookmark", authMiddleware.Required(), caseHandler.ToggleBookmark)

	// Student progress
	me := v1.Group("/me", authMiddleware.Required())
	me.Get("/progress", progressHandler.MyProgress)
	me.Get("/stats", progressHandler.MyStats)
	me.Get("/bookmarks", caseHandler.Bookmarks)
	me.Get("/payments", paymentHandler.MyPayments)

	// Subscriptions and payments
	subs := v1.Group("/subscriptions")
	subs.Get("/plans", subscriptionHandler.Plans)
	subs.Get("/me", authMiddleware.Required(), subscriptionHandler.Me)

	payments := v1.Group("/payments")
	payments.Post("/checkout/:planID", authMiddleware.Required(), paymentHandler.Checkout)
	payments.Get("/callback", paymentHandler.Callback)

	// Notifications
	notifications := v1.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.List)
	notifications.Post("/read-all", notificationHandler.MarkAllRead)
	notifications.Post("/:id/read", notificationHandler.MarkRead)

	// Admin
	admin := v1.Group("/admin", authMiddleware.Required(), authMiddleware.RequireAdmin())
	admin.Post("/cases", caseHandler.Create)
	admin.Patch("/cases/:id", caseHandler.Update)
	admin.Delete("/cases/:id", caseHandler.Delete)
	admin.Get("/cases/:id/answer-key", caseHandler.AnswerKey)
	admin.Put("/cases/:id/answer-key", caseHandler.SetAnswerKey)
	admin.Post("/cases/import", adminHandler.ImportCases)
	admin.Post("/cases/:id/slides", adminHandler.UploadSlide)
	admin.Delete("/slides/:slideID", adminHandler.DeleteSlide)
	admin.Post("/categories", caseHandler.CreateCategory)
	admin.Post("/subscriptions/grant", subscriptionHandler.Grant)
	admin.Post("/subscriptions/extend", subscriptionHandler.Extend)
	admin.Post("/subscriptions/cancel", subscriptionHandler.Cancel)
	admin.Post("/plans", subscriptionHandler.CreatePlan)
	admin.Post("/notifications/broadcast", notificationHandler.Broadcast)
}
