package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/camden-git/attendsysbackend/attendance"
	"github.com/camden-git/attendsysbackend/config"
	"github.com/camden-git/attendsysbackend/database"
	"github.com/camden-git/attendsysbackend/handlers"
	"github.com/camden-git/attendsysbackend/media"
	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/realtime"
	"github.com/camden-git/attendsysbackend/recognition"
	"github.com/camden-git/attendsysbackend/repository"
	"github.com/camden-git/attendsysbackend/services"
	"github.com/camden-git/attendsysbackend/workers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.SnapshotsPath, cfg.ThumbnailsPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	gormDB, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(gormDB); err != nil {
		log.Fatalf("FATAL: Failed to migrate database schema: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to access underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	employeeRepo := repository.NewEmployeeRepository(gormDB)
	attendanceRepo := repository.NewAttendanceRepository(gormDB)
	leaveRepo := repository.NewLeaveRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)

	seedDefaultAdmin(userRepo)

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypeSnapshot:  filepath.Base(cfg.SnapshotsPath),
		media.AssetTypeThumbnail: filepath.Base(cfg.ThumbnailsPath),
	}
	mediaStore, err := media.NewLocalStorage(cfg.MediaStoragePath, mediaSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}

	// the face models are optional; without them only the probe endpoint is
	// live and enrollment requires precomputed embeddings
	var encoder services.ImageEncoder
	recognizer, err := recognition.NewRecognizer(cfg)
	if err != nil {
		log.Printf("WARN: face recognition disabled: %v", err)
	} else {
		defer recognizer.Close()
		encoder = recognizer
	}

	index := attendance.NewIndex()
	matcher := attendance.NewMatcher(employeeRepo)
	matcher.UseIndex(index, cfg.HNSWMinEnrollment)

	if entries, err := employeeRepo.ListEmbeddings(); err != nil {
		log.Printf("WARN: failed to load enrollment for index: %v", err)
	} else {
		index.Rebuild(entries)
		log.Printf("Loaded %d enrolled embeddings", len(entries))
	}

	engine := attendance.NewEngine(attendanceRepo, leaveRepo, cfg.DeviceLabel,
		time.Duration(cfg.CooldownSeconds)*time.Second)

	hub := realtime.NewHub()
	go hub.Run()

	log.Printf("Initializing enrollment worker pool (Workers: %d, Queue Size: %d)...",
		cfg.NumEnrollmentWorkers, cfg.EnrollmentQueueSize)
	enrollmentProcessor := workers.NewEnrollmentProcessor(cfg, employeeRepo, index,
		cfg.EnrollmentQueueSize, cfg.NumEnrollmentWorkers)
	defer enrollmentProcessor.Stop()

	scanService := services.NewScanService(matcher, engine, encoder, hub,
		cfg.DeviceLabel, cfg.MatchTolerance)
	reportService := services.NewReportService(sqlDB, cfg.WorkStartTime, cfg.MinFullDayHours)

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Device label: %s, cooldown: %ds, tolerance: %.2f",
		cfg.DeviceLabel, cfg.CooldownSeconds, cfg.MatchTolerance)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	scanHandler := handlers.NewScanHandler(scanService)
	employeeHandler := handlers.NewEmployeeHandler(employeeRepo, encoder, mediaStore, enrollmentProcessor)
	leaveHandler := handlers.NewLeaveHandler(leaveRepo, employeeRepo, reportService)
	reportHandler := handlers.NewReportHandler(reportService, cfg.WorkStartTime, cfg.WorkEndTime)
	assetHandler := handlers.NewAssetHandler(mediaStore)

	jwtKey := []byte(cfg.JWTSecret)
	protected := func(h http.HandlerFunc) http.Handler {
		return handlers.AuthMiddleware(userRepo, jwtKey, h)
	}

	r.Route("/api", func(r chi.Router) {
		// kiosk surface; unauthenticated, trusted network segment
		r.Route("/kiosk", func(r chi.Router) {
			r.Post("/scan", scanHandler.ScanImage)
			r.Post("/scan/probe", scanHandler.ScanProbe)
		})

		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Method("GET", "/auth/me", protected(authHandler.CurrentUser))

		r.Route("/admin", func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return handlers.AuthMiddleware(userRepo, jwtKey, next)
			})

			r.Route("/employees", func(r chi.Router) {
				r.Post("/", employeeHandler.Create)
				r.Get("/", employeeHandler.List)
				r.Route("/{employeeID}", func(r chi.Router) {
					r.Get("/", employeeHandler.Get)
					r.Put("/", employeeHandler.Update)
					r.Put("/photo", employeeHandler.UpdatePhoto)
					r.Delete("/", employeeHandler.Delete)
					r.Get("/leave", leaveHandler.ListByEmployee)
				})
			})

			r.Route("/leave", func(r chi.Router) {
				r.Post("/", leaveHandler.Create)
				r.Get("/", leaveHandler.List)
				r.Delete("/{leaveID}", leaveHandler.Delete)
			})

			r.Get("/attendance", reportHandler.Attendance)
			r.Get("/reports/work-hours", reportHandler.WorkHours)
			r.Get("/stats", reportHandler.Stats)

			r.Get("/assets/*", assetHandler.Serve)
		})
	})

	// live scan feed for the admin dashboard
	r.Get("/ws/scans", hub.ServeWS)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	fmt.Printf("Server starting on http://localhost:%s\n", port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

// seedDefaultAdmin creates the initial admin account on an empty user table
// so a fresh install can log in.
func seedDefaultAdmin(userRepo repository.UserRepositoryInterface) {
	count, err := userRepo.CountAll()
	if err != nil {
		log.Fatalf("FATAL: Failed to count users: %v", err)
	}
	if count > 0 {
		return
	}

	admin := &models.User{Username: defaultAdminUsername}
	if err := admin.SetPassword(defaultAdminPassword); err != nil {
		log.Fatalf("FATAL: Failed to hash default admin password: %v", err)
	}
	if err := userRepo.Create(admin); err != nil {
		log.Fatalf("FATAL: Failed to seed default admin: %v", err)
	}
	log.Printf("Seeded default admin user %q; change its password immediately", defaultAdminUsername)
}
