package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/open-teleop/rcdrive/domain/diagnostic"
	"github.com/open-teleop/rcdrive/domain/input"
	"github.com/open-teleop/rcdrive/domain/teleop"
	"github.com/open-teleop/rcdrive/pkg/api"
	"github.com/open-teleop/rcdrive/pkg/config"
	customlog "github.com/open-teleop/rcdrive/pkg/log"
	"github.com/open-teleop/rcdrive/pkg/store"
	"github.com/open-teleop/rcdrive/pkg/target"
	"github.com/open-teleop/rcdrive/pkg/transport"
	"github.com/open-teleop/rcdrive/pkg/tui"
	"github.com/open-teleop/rcdrive/pkg/zeromq"
	"github.com/open-teleop/rcdrive/services"
)

func main() {
	fs := flag.NewFlagSet("controller", flag.ExitOnError)
	configDir := fs.String("config-dir", "./config", "directory containing "+config.BootstrapFilename)
	useTUI := fs.Bool("tui", false, "drive from the terminal")
	_ = fs.Parse(os.Args[1:])

	// Load bootstrap configuration
	bootstrapCfg, err := config.LoadBootstrapConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load bootstrap config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger; the terminal UI owns stdout when active
	logger, err := customlog.New(customlog.Options{
		Level: bootstrapCfg.Logging.Level,
		Dir:   bootstrapCfg.Logging.LogPath,
		Quiet: *useTUI,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Infof("Loaded bootstrap config from %s", *configDir)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Local key-value store for the operator URL
	kv, err := store.OpenSQLite(ctx, bootstrapCfg.Store.Path)
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	defer kv.Close()

	targetService, err := services.NewTargetService(kv, logger)
	if err != nil {
		logger.Fatalf("Failed to create target service: %v", err)
	}

	env := target.EnvironmentFromConfig(bootstrapCfg.Target)
	resolver := target.NewResolver(env, kv)
	sender := transport.NewHTTPSender(bootstrapCfg.RequestTimeout())

	sessionID := uuid.NewString()
	diagnosticService := diagnostic.NewDiagnosticService(sessionID)

	var feed *tui.EventFeed
	opts := []teleop.Option{
		teleop.WithSessionID(sessionID),
		teleop.WithObserver(diagnosticService),
		teleop.WithLimits(
			float64(*bootstrapCfg.Limits.ThrottlePercent)/100,
			float64(*bootstrapCfg.Limits.SteeringPercent)/100,
		),
	}
	if *useTUI {
		feed = tui.NewEventFeed(0)
		opts = append(opts, teleop.WithObserver(feed))
	}

	var publisher *zeromq.UpdatePublisher
	if addr := bootstrapCfg.ZeroMQ.PublishBindAddress; addr != "" {
		publisher, err = zeromq.NewUpdatePublisher(addr, logger)
		if err != nil {
			logger.Fatalf("Failed to create ZeroMQ publisher: %v", err)
		}
		defer publisher.Close()
		opts = append(opts, teleop.WithObserver(publisher))
		targetService.SetPublisher(publisher)
	}

	dispatcher := teleop.NewDispatcher(sender, resolver, logger, opts...)

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		if err := dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Errorf("Dispatcher exited: %v", err)
		}
	}()

	keymap, err := input.KeymapFromConfig(bootstrapCfg.Input.Keys)
	if err != nil {
		logger.Fatalf("Invalid key bindings: %v", err)
	}
	inputHandler := input.NewHandler(keymap, dispatcher, logger,
		*bootstrapCfg.Limits.ThrottlePercent, *bootstrapCfg.Limits.SteeringPercent)

	var accessLog io.Writer = os.Stdout
	if *useTUI {
		accessLog = nil
	}
	app := api.NewApp(api.Deps{
		Logger:      logger,
		Status:      dispatcher,
		Input:       inputHandler,
		Targets:     targetService,
		Diagnostics: diagnosticService,
		Environment: env,
		AccessLog:   accessLog,
	})

	// Get port from environment variable or use config
	port := os.Getenv("PORT")
	if port == "" {
		port = strconv.Itoa(bootstrapCfg.Server.HTTPPort)
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", port)
		if err := app.Listen(":" + port); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	if *useTUI {
		hold := input.NewHoldTracker(inputHandler, bootstrapCfg.ReleaseAfter())
		model := tui.New(inputHandler, hold, feed, describeTarget(ctx, env, resolver))
		if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil && ctx.Err() == nil {
			logger.Errorf("Terminal UI exited: %v", err)
		}
		cancel()
	} else {
		<-ctx.Done()
	}
	logger.Infof("Shutting down server...")

	// Create context with timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	<-dispatchDone

	logger.Infof("Server exited properly")
}

// describeTarget is the header line of the terminal UI.
func describeTarget(ctx context.Context, env target.Environment, resolver target.Resolver) string {
	u, err := resolver.Endpoint(ctx)
	if err != nil {
		return "no vehicle url (PUT /api/v1/target)"
	}
	if env.Local {
		return "local: " + u
	}
	return "hosted: " + u
}
