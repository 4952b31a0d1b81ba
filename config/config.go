package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultSnapshotsSubDir  = "snapshots"
	DefaultThumbnailsSubDir = "thumbnails"
)

const (
	defaultMatchTolerance     = 0.45
	defaultCooldownSeconds    = 10
	defaultDeviceLabel        = "KIOSK-01"
	defaultEnrollmentQueue    = 50
	defaultNumWorkers         = 2
	defaultThumbnailMaxSize   = 300
	defaultHNSWMinEnrollment  = 256
	defaultRecognitionNetName = "arcface"
	defaultWorkStartTime      = "08:30:00"
	defaultWorkEndTime        = "17:30:00"
	defaultMinFullDayHours    = 8.0
)

type Config struct {
	// database path
	DatabasePath string

	// matching / decision settings
	MatchTolerance    float64 // maximum accepted embedding distance, (0,1]
	CooldownSeconds   int     // minimum seconds between two resolutions for one identity
	DeviceLabel       string  // capture station label written on ledger rows
	HNSWMinEnrollment int     // enrollment size at which the ANN index kicks in

	// snapshot storage configuration
	MediaStoragePath string // primary root for enrollment snapshots and thumbnails
	SnapshotsPath    string // full-calculated path for enrollment snapshots
	ThumbnailsPath   string // full-calculated path for thumbnails
	ThumbnailMaxSize int

	// worker settings
	EnrollmentQueueSize  int
	NumEnrollmentWorkers int

	// face model paths (DNN)
	FaceDNNNetConfigPath     string
	FaceDNNNetModelPath      string
	FaceRecognitionModelPath string
	FaceRecognitionModelName string // arcface or facenet

	// report settings
	WorkStartTime   string  // HH:MM:SS; a first IN after this marks a late arrival
	WorkEndTime     string  // HH:MM:SS; informational, echoed to the dashboard
	MinFullDayHours float64 // hours required to count a full working day

	// auth
	JWTSecret string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val <= 0 || val > 1 {
		log.Printf("Warning: Invalid %s '%s'. Using default %g. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvTimeOrDefault(envVar, defaultVal string) string {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	if _, err := time.Parse("15:04:05", valStr); err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %s. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return valStr
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "attendance.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	snapshotSubDir := getEnvOrDefault("SNAPSHOTS_SUBDIR", DefaultSnapshotsSubDir)
	absSnapshotsPath := filepath.Join(absMediaStorage, snapshotSubDir)

	thumbSubDir := getEnvOrDefault("THUMBNAILS_SUBDIR", DefaultThumbnailsSubDir)
	absThumbnailsPath := filepath.Join(absMediaStorage, thumbSubDir)

	workStart := getEnvTimeOrDefault("WORK_START", defaultWorkStartTime)
	workEnd := getEnvTimeOrDefault("WORK_END", defaultWorkEndTime)

	minFullDay := defaultMinFullDayHours
	if valStr := os.Getenv("MIN_FULL_DAY_HOURS"); valStr != "" {
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil || val <= 0 || val > 24 {
			log.Printf("Warning: Invalid MIN_FULL_DAY_HOURS '%s'. Using default %g. Error: %v", valStr, minFullDay, err)
		} else {
			minFullDay = val
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	cfg := Config{
		DatabasePath:             dbPath,
		MatchTolerance:           getEnvFloatOrDefault("MATCH_TOLERANCE", defaultMatchTolerance),
		CooldownSeconds:          getEnvIntOrDefault("COOLDOWN_SECONDS", defaultCooldownSeconds),
		DeviceLabel:              getEnvOrDefault("DEVICE_LABEL", defaultDeviceLabel),
		HNSWMinEnrollment:        getEnvIntOrDefault("HNSW_MIN_ENROLLMENT", defaultHNSWMinEnrollment),
		MediaStoragePath:         absMediaStorage,
		SnapshotsPath:            absSnapshotsPath,
		ThumbnailsPath:           absThumbnailsPath,
		ThumbnailMaxSize:         getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize),
		EnrollmentQueueSize:      getEnvIntOrDefault("ENROLLMENT_QUEUE_SIZE", defaultEnrollmentQueue),
		NumEnrollmentWorkers:     getEnvIntOrDefault("NUM_ENROLLMENT_WORKERS", defaultNumWorkers),
		FaceDNNNetConfigPath:     getEnvOrDefault("FACE_DNN_CONFIG_PATH", "./models/deploy.prototxt.txt"),
		FaceDNNNetModelPath:      getEnvOrDefault("FACE_DNN_MODEL_PATH", "./models/res10_300x300_ssd_iter_140000_fp16.caffemodel"),
		FaceRecognitionModelPath: getEnvOrDefault("FACE_RECOGNITION_MODEL_PATH", "./models/arcface.onnx"),
		FaceRecognitionModelName: getEnvOrDefault("FACE_RECOGNITION_MODEL", defaultRecognitionNetName),
		WorkStartTime:            workStart,
		WorkEndTime:              workEnd,
		MinFullDayHours:          minFullDay,
		JWTSecret:                jwtSecret,
	}

	return cfg, nil
}
