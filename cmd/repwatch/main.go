package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ayusman/repwatch/internal/app"
	"github.com/ayusman/repwatch/internal/config"
	"github.com/ayusman/repwatch/internal/counter"
	"github.com/ayusman/repwatch/internal/server"
	"github.com/ayusman/repwatch/internal/store"
	"github.com/ayusman/repwatch/internal/tray"
)

func main() {
	fmt.Println("Repwatch - Exercise Rep Counter")

	cfg := config.Load()

	// Initialize the data directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dataDir := filepath.Join(homeDir, ".repwatch")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "repwatch.db")
	}
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	hookDir := cfg.HookDir
	if hookDir == "" {
		hookDir = filepath.Join(dataDir, "hooks")
	}

	application, err := app.New(app.Config{
		Store:        st,
		HookDir:      hookDir,
		CameraID:     cfg.CameraID,
		MotionThresh: cfg.MotionThreshold,
		Counter:      cfg.CounterConfig(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	if err := application.DiscoverHooks(); err != nil {
		log.Printf("Hook discovery failed: %v", err)
	} else if n := len(application.Hooks().List()); n > 0 {
		fmt.Printf("Loaded %d rep hook(s) from %s\n", n, hookDir)
	}

	if err := application.LoadActiveProfile(); err != nil {
		log.Printf("Failed to load active profile: %v", err)
	}

	srv := server.New(server.Config{
		StaticDir:  cfg.StaticDir,
		Store:      st,
		Camera:     application.Camera(),
		Controller: application,
	})

	tr := tray.New()

	// Every processed frame goes out on the live feed and the tray.
	application.OnUpdate(func(out counter.Output) {
		srv.Publish(out)
		tr.SetCount(out.Count)
	})

	application.SetEnabled(true)
	if err := application.Start(); err != nil {
		log.Printf("Camera unavailable, counting idle until restart: %v", err)
	}
	defer application.Stop()

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.ListenAddr)
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// The tray owns the main thread until quit.
	tr.OnToggle(func(enabled bool) {
		application.SetEnabled(enabled)
	})
	tr.OnReset(func() {
		application.ResetCounter()
	})
	tr.OnSettings(func() {
		fmt.Printf("Settings: http://%s/\n", cfg.ListenAddr)
	})
	tr.Run()
}
