package config

import (
	"log"
	"os"
	"strings"

	"nlq-router/internal/datastore"
)

// GetDataStoreConfig returns the data store configuration based on environment variables
func GetDataStoreConfig() datastore.Config {
	// Check for NLQ_STORE_TYPE environment variable or use default
	storeType := os.Getenv("NLQ_STORE_TYPE")
	if storeType == "" {
		storeType = "postgresql" // Default to PostgreSQL
	}

	config := datastore.Config{}

	switch strings.ToLower(storeType) {
	case "mock":
		config.Type = datastore.MockStore
		config.MockDataPath = GetMockDataPath()
	case "postgresql", "postgres", "db":
		config.Type = datastore.PostgreSQLStore
		config.ConnectionString = GetConnectionString()
	default:
		// Default to PostgreSQL if unknown type
		config.Type = datastore.PostgreSQLStore
		config.ConnectionString = GetConnectionString()
	}

	return config
}

// GetMockDataPath returns the path to mock data files
func GetMockDataPath() string {
	path := os.Getenv("NLQ_MOCK_DATA_PATH")
	if path == "" {
		return "data/mocks" // Default path
	}
	return path
}

// GetConnectionString returns the database connection string
func GetConnectionString() string {
	connStr := os.Getenv("DB_CONN_STRING")
	if connStr == "" {
		// Default connection string for local development
		return "postgres://localhost:5432/postgres?sslmode=disable"
	}
	return connStr
}

// IsMockMode returns true if running in mock mode
func IsMockMode() bool {
	storeType := os.Getenv("NLQ_STORE_TYPE")
	return strings.EqualFold(storeType, "mock")
}

// GetAPIKey looks for GEMINI_API_KEY first, then falls back to GOOGLE_API_KEY.
// Empty means the fallback agent stays disabled.
func GetAPIKey() string {
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		return apiKey
	}
	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		log.Println("Using GOOGLE_API_KEY for Gemini API (consider setting GEMINI_API_KEY)")
		return apiKey
	}
	return ""
}
