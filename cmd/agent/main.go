package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/reelcut/reelcut-agent/internal/api"
	"github.com/reelcut/reelcut-agent/internal/config"
	"github.com/reelcut/reelcut-agent/internal/db"
	"github.com/reelcut/reelcut-agent/internal/logging"
	"github.com/reelcut/reelcut-agent/internal/playback"
	"github.com/reelcut/reelcut-agent/internal/probe"
	"github.com/reelcut/reelcut-agent/internal/project"
	"github.com/reelcut/reelcut-agent/internal/ui"
	"github.com/reelcut/reelcut-agent/internal/watcher"
)

// recordingExtensions are the container formats screen recorders
// actually produce.
var recordingExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting reelcut agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                    REELCUT AGENT v0.1.0                   ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	prober := newProber(cfg, logger)
	projectSvc := project.NewService(repo, prober, cfg.ProbeParallel(), logger)
	playbackSvc := playback.NewServer(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := project.NewRunner(repo, prober, logger)
	go runner.Start(ctx)

	if dir := cfg.WatchDir(); dir != "" {
		if err := watchRecordings(ctx, dir, projectSvc, logger); err != nil {
			logger.Warn("recordings watch unavailable", "dir", dir, "error", err)
		}
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		ProjectService: projectSvc,
		PlaybackServer: playbackSvc,
		Repository:     repo,
		Runner:         runner,
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			ProjectService: projectSvc,
			Runner:         runner,
			Logger:         logger,
			OnOpenEditor: func() error {
				logger.Info("editor requested from tray", "url", fmt.Sprintf("http://127.0.0.1:%d", cfg.Port()))
				return nil
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// newProber prefers a real ffprobe. Without one the agent still runs,
// recordings just stay unprobed until ffmpeg is installed.
func newProber(cfg config.Config, logger *slog.Logger) probe.Prober {
	binary := cfg.FFprobePath()
	if binary == "" {
		binary = "ffprobe"
	}
	if _, err := exec.LookPath(binary); err != nil {
		logger.Warn("ffprobe not found, media probing disabled", "binary", binary)
		return probe.NewStubProber(logger)
	}
	return probe.NewFFprobe(binary, cfg.ProbeTimeout(), logger)
}

// watchRecordings registers captures dropped into the recordings
// directory and tracks presence of already-registered media.
func watchRecordings(ctx context.Context, dir string, svc project.ProjectService, logger *slog.Logger) error {
	w, err := watcher.NewFSWatcher(logger)
	if err != nil {
		return err
	}

	w.OnChange(func(path string, event watcher.EventType) {
		if !recordingExtensions[strings.ToLower(filepath.Ext(path))] {
			return
		}
		switch event {
		case watcher.EventCreate:
			if _, _, err := svc.RegisterRecording(ctx, path, ""); err != nil {
				logger.Warn("failed to register recording from watch", "path", path, "error", err)
			}
		case watcher.EventModify:
			if err := svc.MarkRecordingPresent(ctx, path, true); err != nil {
				logger.Warn("failed to mark recording present", "path", path, "error", err)
			}
		case watcher.EventDelete:
			if err := svc.MarkRecordingPresent(ctx, path, false); err != nil {
				logger.Warn("failed to mark recording absent", "path", path, "error", err)
			}
		}
	})

	if err := w.Watch(ctx, dir); err != nil {
		w.Stop()
		return err
	}

	logger.Info("watching recordings directory", "dir", dir)
	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

func ensureDeviceID(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
