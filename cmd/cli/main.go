package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/voxscreen/voxscreen/pkg/logger"
	"github.com/voxscreen/voxscreen/pkg/voxscreen"
)

// Global flags
var (
	modelPath  string
	historyDSN string
)

func init() {
	// Global flags that can be used with any command
	flag.StringVar(&modelPath, "model", getEnvOrDefault("VOX_MODEL_PATH", "depression_model.json"), "Path to the classifier model JSON")
	flag.StringVar(&historyDSN, "history-dsn", getEnvOrDefault("VOX_HISTORY_DSN", ""), "History database DSN (empty for in-memory)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService creates a new screening service with configured options
func createService() (voxscreen.Service, error) {
	return voxscreen.NewService(
		voxscreen.WithModelPath(modelPath),
		voxscreen.WithHistoryDSN(historyDSN),
	)
}

func main() {
	log := logger.GetLogger()

	printBanner()

	// Global flags come before the command; everything after it belongs to
	// the subcommand.
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	log.Infof("Executing command: %s", command)

	switch command {
	case "analyze":
		handleAnalyze(args[1:])
	case "report":
		handleReport(args[1:])
	case "spectrogram":
		handleSpectrogram(args[1:])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
__     __        ____
\ \   / /____  _/ ___|  ___ _ __ ___  ___ _ __
 \ \ / / _ \ \/ \___ \ / __| '__/ _ \/ _ \ '_ \
  \ V / (_) >  < ___) | (__| | |  __/  __/ | | |
   \_/ \___/_/\_\____/ \___|_|  \___|\___|_| |_|

       Child Speech Screening CLI Tool
`
	fmt.Println(banner)
}

func handleAnalyze(args []string) {
	log := logger.GetLogger()

	if len(args) < 1 {
		fmt.Println("Usage: voxscreen analyze <audio_file> [<audio_file> ...]")
		os.Exit(1)
	}
	paths := args

	fmt.Println("\nInitializing service...")
	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	sessionID, err := svc.CreateSession()
	if err != nil {
		fmt.Printf("Failed to create session: %v\n", err)
		log.Errorf("CreateSession failed: %v", err)
		os.Exit(1)
	}
	defer svc.EndSession(sessionID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	failures := 0
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("Failed to read %s: %v\n", path, err)
			log.Errorf("Read failed for %s: %v", path, err)
			failures++
			continue
		}

		fmt.Printf("\nAnalyzing %s...\n", path)
		rec, err := svc.Analyze(ctx, sessionID, raw)
		if err != nil {
			fmt.Printf("Analysis failed: %v\n", err)
			log.Errorf("Analyze failed for %s: %v", path, err)
			failures++
			continue
		}

		fmt.Printf("   Prediction: %s\n", rec.Label)
		fmt.Printf("   Confidence: %.2f%%\n", rec.ConfidencePercent)
		fmt.Printf("   Note:       %s\n", rec.Advisory)
	}

	// History, newest first
	entries, err := svc.History(sessionID)
	if err != nil {
		log.Errorf("History failed: %v", err)
	} else if len(entries) > 1 {
		fmt.Println("\nSession history (most recent first):")
		for i := len(entries) - 1; i >= 0; i-- {
			fmt.Printf("   %s\n", entries[i].Summary)
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func handleReport(args []string) {
	log := logger.GetLogger()

	if len(args) < 1 {
		fmt.Println("Usage: voxscreen report <audio_file> [--out <pdf_path>]")
		os.Exit(1)
	}
	audioPath := args[0]

	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)
	outPath := reportCmd.String("out", "", "Output PDF path (defaults to the suggested filename)")
	reportCmd.Parse(args[1:])

	raw, err := os.ReadFile(audioPath)
	if err != nil {
		fmt.Printf("Failed to read %s: %v\n", audioPath, err)
		log.Errorf("Read failed for %s: %v", audioPath, err)
		os.Exit(1)
	}

	fmt.Println("\nInitializing service...")
	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	sessionID, err := svc.CreateSession()
	if err != nil {
		fmt.Printf("Failed to create session: %v\n", err)
		log.Errorf("CreateSession failed: %v", err)
		os.Exit(1)
	}
	defer svc.EndSession(sessionID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("Analyzing %s...\n", audioPath)
	rec, err := svc.Analyze(ctx, sessionID, raw)
	if err != nil {
		fmt.Printf("Analysis failed: %v\n", err)
		log.Errorf("Analyze failed: %v", err)
		os.Exit(1)
	}

	out, filename, err := svc.Report(rec)
	if err != nil {
		fmt.Printf("Failed to render report: %v\n", err)
		log.Errorf("Report failed: %v", err)
		os.Exit(1)
	}

	dest := *outPath
	if dest == "" {
		dest = filename
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		fmt.Printf("Failed to write %s: %v\n", dest, err)
		log.Errorf("Write failed: %v", err)
		os.Exit(1)
	}

	fmt.Println("\nReport written!")
	fmt.Printf("   File:       %s\n", dest)
	fmt.Printf("   Prediction: %s\n", rec.Label)
	fmt.Printf("   Confidence: %.2f%%\n", rec.ConfidencePercent)
	log.Infof("Report written to %s", dest)
}

func handleSpectrogram(args []string) {
	log := logger.GetLogger()

	if len(args) < 1 {
		fmt.Println("Usage: voxscreen spectrogram <audio_file> [--out <png_path>]")
		os.Exit(1)
	}
	audioPath := args[0]

	spectroCmd := flag.NewFlagSet("spectrogram", flag.ExitOnError)
	outPath := spectroCmd.String("out", "spectrogram.png", "Output PNG path")
	width := spectroCmd.Int("width", 0, "Image width in pixels (0 for default)")
	height := spectroCmd.Int("height", 0, "Image height in pixels (0 for default)")
	spectroCmd.Parse(args[1:])

	raw, err := os.ReadFile(audioPath)
	if err != nil {
		fmt.Printf("Failed to read %s: %v\n", audioPath, err)
		log.Errorf("Read failed for %s: %v", audioPath, err)
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	fmt.Printf("Rendering spectrogram for %s...\n", audioPath)
	out, err := svc.Spectrogram(raw, *width, *height)
	if err != nil {
		fmt.Printf("Failed to render spectrogram: %v\n", err)
		log.Errorf("Spectrogram failed: %v", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*outPath, out, 0o644); err != nil {
		fmt.Printf("Failed to write %s: %v\n", *outPath, err)
		log.Errorf("Write failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("Spectrogram written to %s\n", *outPath)
	log.Infof("Spectrogram written to %s", *outPath)
}

func printUsage() {
	fmt.Println("VoxScreen - Child Speech Screening CLI")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --model <path>        Classifier model JSON (env: VOX_MODEL_PATH, default: depression_model.json)")
	fmt.Println("  --history-dsn <dsn>   History database DSN (env: VOX_HISTORY_DSN, default: in-memory)")
	fmt.Println("\nUsage:")
	fmt.Println("  voxscreen [global-options] analyze <audio_file> [<audio_file> ...]")
	fmt.Println("  voxscreen [global-options] report <audio_file> [--out report.pdf]")
	fmt.Println("  voxscreen [global-options] spectrogram <audio_file> [--out spectrogram.png]")
	fmt.Println("\nExamples:")
	fmt.Println("  # Analyze a single clip")
	fmt.Println("  voxscreen analyze clip.wav")
	fmt.Println()
	fmt.Println("  # Analyze several clips in one session and print the history")
	fmt.Println("  voxscreen analyze clip1.wav clip2.wav clip3.wav")
	fmt.Println()
	fmt.Println("  # Render the PDF report for a clip")
	fmt.Println("  voxscreen report clip.wav --out screening.pdf")
	fmt.Println()
	fmt.Println("  # Render a spectrogram PNG")
	fmt.Println("  voxscreen spectrogram clip.wav --out clip.png")
}
