package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/voxscreen/voxscreen/pkg/voxscreen"
)

var (
	port           int
	modelPath      string
	historyDSN     string
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&modelPath, "model", getEnvOrDefault("VOX_MODEL_PATH", "depression_model.json"), "Path to the classifier model JSON")
	flag.StringVar(&historyDSN, "history-dsn", getEnvOrDefault("VOX_HISTORY_DSN", ""), "History database DSN (empty for in-memory)")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	// Parse allowed origins
	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	// Create screening service
	service, err := voxscreen.NewService(
		voxscreen.WithModelPath(modelPath),
		voxscreen.WithHistoryDSN(historyDSN),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	// Create server configuration
	config := &ServerConfig{
		Port:           port,
		ModelPath:      modelPath,
		HistoryDSN:     historyDSN,
		AllowedOrigins: origins,
	}

	// Create and start server
	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
