// Command rushhour starts the Rush Hour puzzle server.
//
// It supports three commands:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, metrics and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "solve" – solves a puzzle locally and replays the solution in the terminal
//
// Flags control host/port, config and session directories, solver bounds,
// debug logging and optional ngrok tunneling for easy external access during
// development. Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/rushhour/api"
	"github.com/wricardo/rushhour/game/config"
	"github.com/wricardo/rushhour/game/engine"
	"github.com/wricardo/rushhour/game/render"
	"github.com/wricardo/rushhour/game/service"
	"github.com/wricardo/rushhour/game/session"
	"github.com/wricardo/rushhour/transport/mcp"
	"github.com/wricardo/rushhour/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "3.0.0"
	AppName = "Rush Hour Server"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. Flags on the root command are shared by
// every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "rushhour",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing puzzle configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory where sessions are persisted",
				Sources: cli.EnvVars("SESSIONS_DIR"),
			},
			&cli.DurationFlag{
				Name:    "solve-timeout",
				Value:   service.DefaultSolveTimeout,
				Usage:   "Maximum time spent on one solve",
				Sources: cli.EnvVars("SOLVE_TIMEOUT"),
			},
			&cli.IntFlag{
				Name:    "max-states",
				Value:   service.DefaultMaxStates,
				Usage:   "Maximum boards explored by one solve",
				Sources: cli.EnvVars("MAX_STATES"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, metrics and MCP endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "ngrok",
						Usage:   "Enable ngrok tunnel",
						Sources: cli.EnvVars("NGROK_ENABLED"),
					},
					&cli.StringFlag{
						Name:    "ngrok-auth",
						Usage:   "Ngrok auth token",
						Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
					},
					&cli.StringFlag{
						Name:    "ngrok-domain",
						Usage:   "Custom ngrok domain (optional)",
						Sources: cli.EnvVars("NGROK_DOMAIN"),
					},
				},
				Action: runServe,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCP,
			},
			{
				Name:      "solve",
				Usage:     "Solve a puzzle and replay the solution",
				ArgsUsage: "<config name or file>",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "delay",
						Value: -1,
						Usage: "Pause between frames (negative: 0.5s on a terminal, none otherwise)",
					},
					&cli.BoolFlag{
						Name:  "no-animate",
						Usage: "Print frames one after another instead of redrawing in place",
					},
				},
				Action: runSolve,
			},
		},
	}
}

// initializeServices wires session/config managers, the solver and the
// puzzle service. It also starts the background routines that watch the
// config directory and prune stale sessions until ctx is done.
func initializeServices(ctx context.Context, cmd *cli.Command) (service.PuzzleService, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if err := configManager.Watch(ctx); err != nil {
		log.Printf("Warning: config hot reload disabled: %v", err)
	}

	store, err := session.NewFileStore(cmd.String("sessions-dir"), configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	sessionManager := session.NewManagerWithStore(store)

	if n, err := sessionManager.LoadAll(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	} else if n > 0 {
		log.Printf("Loaded %d persisted sessions from %s", n, cmd.String("sessions-dir"))
	}

	solver := service.NewSolver(service.SolverOptions{
		Timeout:   cmd.Duration("solve-timeout"),
		MaxStates: int(cmd.Int("max-states")),
	})

	puzzleService := service.NewPuzzleService(sessionManager, configManager, solver)

	go sessionCleanupRoutine(ctx, sessionManager)
	go filesystemSyncRoutine(ctx, sessionManager)

	return puzzleService, nil
}

// sessionCleanupRoutine periodically evicts sessions that have not been
// accessed within a day, and flushes every session to disk once ctx is done.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := manager.Flush(); err != nil {
				log.Printf("Warning: Failed to flush sessions: %v", err)
			}
			return
		case <-ticker.C:
			if removed := manager.ExpireIdle(24 * time.Hour); removed > 0 {
				log.Printf("Evicted %d idle sessions from memory", removed)
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory when their files are
// deleted from the sessions directory.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := manager.PruneOrphaned(); pruned > 0 {
				log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
			}
		}
	}
}

// mcpHandler serves MCP JSON-RPC messages over plain HTTP POST.
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runServe starts the HTTP server with REST API, WebSocket hub, and an /mcp
// proxy endpoint. If ngrok is enabled it also provisions a public tunnel.
func runServe(ctx context.Context, cmd *cli.Command) error {
	log.Printf("Starting %s v%s (mode: serve)", AppName, Version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	puzzleService, err := initializeServices(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	apiServer := api.NewServer(puzzleService, hub)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)
		log.Printf("Metrics: http://%s/metrics", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), mainRouter)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// runNgrok exposes handler through an ngrok tunnel until ctx is done.
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses an API server already
// listening on host:port; if there is none, it starts an internal one bound
// to a random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	externalURL := fmt.Sprintf("http://%s:%d", cmd.String("host"), cmd.Int("port"))
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		puzzleService, err := initializeServices(ctx, cmd)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		log.Printf("Starting internal HTTP server on %s for MCP stdio", listener.Addr())

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(puzzleService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// loadPuzzle reads a puzzle from a file path, or by name from the config
// directory.
func loadPuzzle(arg, configDir string) (*engine.PuzzleConfig, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return engine.LoadPuzzleConfig(arg)
	}
	path, err := engine.FindConfigFile(configDir, arg)
	if err != nil {
		return nil, err
	}
	return engine.LoadPuzzleConfig(path)
}

// runSolve solves one puzzle locally and replays the solution.
func runSolve(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: %s solve <config name or file>", cmd.Root().Name)
	}

	puzzle, err := loadPuzzle(cmd.Args().First(), cmd.String("config-dir"))
	if err != nil {
		return err
	}
	board, err := puzzle.Board()
	if err != nil {
		return err
	}

	solveCtx, cancel := context.WithTimeout(ctx, cmd.Duration("solve-timeout"))
	defer cancel()

	out := cmd.Root().Writer
	sol, err := engine.Solve(solveCtx, board, engine.SolveOptions{MaxStates: int(cmd.Int("max-states"))})
	if err != nil {
		return fmt.Errorf("solve %s: %w", puzzle.Name, err)
	}
	log.Printf("[SOLVE] %s: %d moves, explored=%d generated=%d in %s",
		puzzle.Name, sol.Len(), sol.Explored, sol.Generated, sol.Duration)

	opts := render.Options{Delay: cmd.Duration("delay")}
	if cmd.Bool("no-animate") {
		inPlace := false
		opts.InPlace = &inPlace
	}
	return render.NewRenderer(out, opts).Play(ctx, board, sol.Moves)
}
