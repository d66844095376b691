package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ironsheep/bodymap-mcp/internal/anatomy"
	"github.com/ironsheep/bodymap-mcp/internal/config"
	"github.com/ironsheep/bodymap-mcp/internal/imaging"
	"github.com/ironsheep/bodymap-mcp/internal/logging"
	"github.com/ironsheep/bodymap-mcp/internal/server"
	"github.com/ironsheep/bodymap-mcp/internal/session"
	"github.com/ironsheep/bodymap-mcp/internal/snapshot"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("bodymap-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("bodymap-mcp - MCP server for anatomical body map marking")
			fmt.Println()
			fmt.Println("Usage: bodymap-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Configuration is read from bodymap.json in BODYMAP_CONFIG_DIR")
			fmt.Println("(default: current directory). Every key can be overridden with a")
			fmt.Println("BODYMAP_ environment variable, for example:")
			fmt.Println("  BODYMAP_LOG_LEVEL=debug               Enable debug logging")
			fmt.Println("  BODYMAP_IMAGES_ANTERIOR=/art/front.png Anterior reference image")
			fmt.Println("  BODYMAP_UPLOAD_URL=https://...         Snapshot upload endpoint")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	configDir := os.Getenv("BODYMAP_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bodymap-mcp: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr (stdout is for MCP protocol)
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bodymap-mcp: %v\n", err)
		os.Exit(1)
	}
	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Msg("starting bodymap-mcp")

	sess := newSession(cfg, log)

	srv := server.New(sess, Version, log)
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func newSession(cfg *config.Config, log zerolog.Logger) *session.Session {
	palette, err := imaging.NewPalette(imaging.PaletteSpec{
		Injury:       cfg.Palette.Injury,
		Pain:         cfg.Palette.Pain,
		Intervention: cfg.Palette.Intervention,
		PendingFill:  cfg.Palette.PendingFill,
	})
	if err != nil {
		log.Warn().Err(err).Msg("invalid palette entries, using defaults for them")
	}

	refs := imaging.NewReferenceCache(imaging.FileSource{
		anatomy.Anterior:  cfg.Images.Anterior,
		anatomy.Posterior: cfg.Images.Posterior,
	}, imaging.SurfaceWidth, imaging.SurfaceHeight, log)
	if err := refs.Preload(); err != nil {
		// Not fatal: the next redraw retries.
		log.Warn().Err(err).Msg("reference image preload failed")
	}

	var uploader snapshot.Uploader
	if cfg.Upload.URL != "" {
		uploader = snapshot.NewHTTPUploader(cfg.Upload.URL, cfg.Upload.APIKey, cfg.Upload.Timeout)
	} else {
		log.Info().Msg("upload.url not set, snapshots disabled")
	}

	sess := session.New(session.Options{
		References:        refs,
		Renderer:          imaging.NewRenderer(palette),
		Exporter:          snapshot.NewExporter(uploader, log),
		DestinationPrefix: cfg.Upload.DestinationPrefix,
		Logger:            log,
	})
	if err := sess.Redraw(); err != nil {
		log.Warn().Err(err).Msg("initial render without reference image")
	}
	return sess
}
