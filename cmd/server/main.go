package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coupon-studio/backend/internal/api"
	"github.com/coupon-studio/backend/internal/config"
	"github.com/coupon-studio/backend/internal/printjob"
	"github.com/coupon-studio/backend/internal/recordstore"
	"github.com/coupon-studio/backend/internal/render"
	"github.com/coupon-studio/backend/internal/storage"
	"github.com/coupon-studio/backend/internal/web"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "CouponStudio.exe.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Check if running in embedded mode (frontend built into binary)
	embeddedMode := web.HasEmbeddedFiles()

	// Initialize template storage
	templateStore, err := storage.NewLocalStore(cfg.GetTemplatesDir())
	if err != nil {
		fmt.Printf("Failed to initialize template storage: %v\n", err)
		os.Exit(1)
	}

	// Initialize record storage
	records, err := recordstore.NewDuckStore(cfg.GetDataDir())
	if err != nil {
		fmt.Printf("Failed to initialize record store: %v\n", err)
		os.Exit(1)
	}
	defer records.Close()

	// Initialize fonts. A configured TTF overrides the built-in faces,
	// which lack Hangul coverage.
	var fonts *render.FontProvider
	if cfg.Rendering.FontPath != "" {
		boldPath := cfg.Rendering.BoldFontPath
		if boldPath == "" {
			boldPath = cfg.Rendering.FontPath
		}
		fonts, err = render.NewFontProviderFromFiles(cfg.Rendering.FontPath, boldPath)
	} else {
		fonts, err = render.NewFontProvider()
	}
	if err != nil {
		fmt.Printf("Failed to initialize fonts: %v\n", err)
		os.Exit(1)
	}

	// Build all API handlers
	handlers := api.NewHandlers(&api.Dependencies{
		Store:                 templateStore,
		Records:               records,
		Fonts:                 fonts,
		DataDir:               cfg.GetDataDir(),
		Version:               Version,
		DefaultTemplateURL:    cfg.Rendering.DefaultTemplateURL,
		AllowTemplateDeletion: cfg.Security.AllowTemplateDeletion,
		AllowedImageTypes:     cfg.AllowedImageExtensions(),
		MaxUploadSize:         cfg.MaxUploadBytes(),
		MaxBatchRecords:       cfg.Rendering.MaxBatchRecords,
	})

	// Start background cleanup for edit sessions and finished print jobs
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Rendering.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			handlers.EditorSessions.CleanupOldSessions(time.Duration(cfg.Rendering.SessionTimeoutMinutes) * time.Minute)
			handlers.PrintJobs.CleanupOldJobs(printjob.JobMaxAge)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/keepalive") ||
				strings.Contains(path, "/render/batch/") ||
				path == "/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.Contains(path, "/ws/") ||
				strings.Contains(path, "/upload") ||
				strings.Contains(path, "/archive")
		},
		ErrorMessage: "Request timeout - render took too long",
	}))

	// Compression middleware
	if cfg.Rendering.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Rendering.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				// PNG and ZIP payloads are already compressed.
				path := c.Request().URL.Path
				return strings.HasSuffix(path, "/image") ||
					strings.HasSuffix(path, "/preview") ||
					strings.HasSuffix(path, "/archive") ||
					strings.Contains(path, "/sheets/") ||
					strings.Contains(path, "/ws/")
			},
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		if embeddedMode {
			// In embedded mode, use config settings
			origins := strings.Split(cfg.Server.AllowOrigins, ",")
			for i := range origins {
				origins[i] = strings.TrimSpace(origins[i])
			}
			if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
				origins = []string{"*"}
			}
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins: origins,
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			}))
		} else {
			// Development mode - only allow localhost
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins: []string{
					"http://localhost:5173", "http://127.0.0.1:5173",
					"http://localhost:5174", "http://127.0.0.1:5174",
					"http://localhost:3000", "http://127.0.0.1:3000",
				},
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			}))
		}
	}

	// API routes
	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			fmt.Printf("Warning: failed to register static routes: %v\n", err)
		} else {
			fmt.Println("Serving embedded frontend from binary")
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	mode := "Development"
	if embeddedMode {
		mode = "Air-Gapped (Embedded)"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Coupon Studio Server                            ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}

	e.Logger.Fatal(e.StartServer(s))
}
