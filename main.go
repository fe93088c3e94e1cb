// CalqShell: native shell bridge that keeps embedded Calqulation webviews in sync with app preferences.
// Author: vesaa | License: MIT | https://github.com/vesaa/calqshell
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/vesaa/calqshell/internal/agent"
	"github.com/vesaa/calqshell/internal/appearance"
	"github.com/vesaa/calqshell/internal/bridge"
	"github.com/vesaa/calqshell/internal/config"
	"github.com/vesaa/calqshell/internal/logging"
	"github.com/vesaa/calqshell/internal/preference"
	"github.com/vesaa/calqshell/internal/prefs"
	"github.com/vesaa/calqshell/internal/script"
	"github.com/vesaa/calqshell/internal/server"
	"github.com/vesaa/calqshell/internal/store"
	"github.com/vesaa/calqshell/internal/webview"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const asciiLogo = `
  ██████╗ █████╗ ██╗      ██████╗ ███████╗██╗  ██╗███████╗██╗     ██╗
 ██╔════╝██╔══██╗██║     ██╔═══██╗██╔════╝██║  ██║██╔════╝██║     ██║
 ██║     ███████║██║     ██║   ██║███████╗███████║█████╗  ██║     ██║
 ██║     ██╔══██║██║     ██║▄▄ ██║╚════██║██╔══██║██╔══╝  ██║     ██║
 ╚██████╗██║  ██║███████╗╚██████╔╝███████║██║  ██║███████╗███████╗███████╗
  ╚═════╝╚═╝  ╚═╝╚══════╝ ╚══▀▀═╝ ╚══════╝╚═╝  ╚═╝╚══════╝╚══════╝╚══════╝
`

const version = "v0.1.0"

func printBanner(w io.Writer, mode string) {
	fmt.Fprint(w, asciiLogo)
	fmt.Fprintf(w, "  ► CalqShell %s  |  Author: vesaa  |  Mode: %s\n\n", version, mode)
}

func main() {
	root := &cobra.Command{
		Use:   "calqshell",
		Short: "CalqShell keeps embedded Calqulation webviews in sync with app preferences",
		Long: `CalqShell persists the user's currency and theme, turns them into scripts
and pushes them into every mounted webview: hosted pages connected over the
bridge socket and Chrome tabs driven over the DevTools protocol.`,
		SilenceUsage: true,
	}

	// ── serve subcommand ──────────────────────────────────────────────────────
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the shell (dual-port: 7070 control + 7071 data)",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner(os.Stdout, "SERVE")

			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if browser, _ := cmd.Flags().GetBool("browser"); browser {
				cfg.BrowserEnabled = true
			}
			return serve(cfg, log)
		},
	}
	serveCmd.Flags().Bool("browser", false, "Open browser_urls in Chrome tabs (overrides config)")

	// ── agent subcommand ──────────────────────────────────────────────────────
	agentCmd := &cobra.Command{
		Use:   "agent",
		Short: "Report this device's color scheme to a running shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner(os.Stdout, "AGENT")

			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			// CLI flags override config values.
			if join, _ := cmd.Flags().GetString("join"); join != "" {
				if !containsPort(join) {
					join = fmt.Sprintf("%s:%d", join, cfg.DataPort)
				}
				cfg.AgentServerAddr = join
			}
			if token, _ := cmd.Flags().GetString("token"); token != "" {
				cfg.AgentToken = token
			}
			if file, _ := cmd.Flags().GetString("file"); file != "" {
				cfg.AppearanceFile = file
			}

			fmt.Printf("  ✓ Joining shell:    %s\n", cfg.AgentServerAddr)
			fmt.Printf("  ✓ Appearance file:  %s\n", orNone(cfg.AppearanceFile))
			fmt.Printf("  ✓ Report interval:  %ds\n\n", cfg.AgentInterval)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return agent.Run(ctx, cfg, log)
		},
	}
	agentCmd.Flags().String("join", "", "Data-plane address, e.g. 192.168.1.1 or 192.168.1.1:7071")
	agentCmd.Flags().String("token", "", "Bridge token for shell authentication (overrides config)")
	agentCmd.Flags().String("file", "", "File holding light or dark (overrides appearance_file)")

	// ── prefs subcommand ──────────────────────────────────────────────────────
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect or edit stored preferences without a running shell",
	}
	prefsCmd.AddCommand(
		&cobra.Command{
			Use:   "get [currency|theme]",
			Short: "Print stored preferences (defaults when missing)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				kinds := prefs.Kinds
				if len(args) == 1 {
					k, err := prefs.ParseKind(args[0])
					if err != nil {
						return err
					}
					kinds = []prefs.Kind{k}
				}
				return withStore(func(ctx context.Context, st *store.Store) error {
					for _, k := range kinds {
						fmt.Printf("%-9s %s\n", k, st.Load(ctx, k).ID())
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set <currency|theme> <value>",
			Short: "Store a preference",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := lookup(args[0], args[1])
				if err != nil {
					return err
				}
				return withStore(func(ctx context.Context, st *store.Store) error {
					if err := st.Save(ctx, v); err != nil {
						return err
					}
					fmt.Printf("  ✓ %s = %s\n", v.Kind(), v.ID())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear <currency|theme>",
			Short: "Remove a stored preference so the default applies",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				k, err := prefs.ParseKind(args[0])
				if err != nil {
					return err
				}
				return withStore(func(ctx context.Context, st *store.Store) error {
					if err := st.Clear(ctx, k); err != nil {
						return err
					}
					fmt.Printf("  ✓ %s cleared (default %s)\n", k, prefs.Default(k).ID())
					return nil
				})
			},
		},
	)

	// ── script subcommand ─────────────────────────────────────────────────────
	scriptCmd := &cobra.Command{
		Use:   "script <currency|theme> <value>",
		Short: "Print the injection script for a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := lookup(args[0], args[1])
			if err != nil {
				return err
			}
			domain, _ := cmd.Flags().GetString("domain")
			device, _ := cmd.Flags().GetString("device")
			code, err := script.New(domain).Build(v, appearance.Detect(device))
			if err != nil {
				return err
			}
			fmt.Println(strings.TrimSpace(code))
			return nil
		},
	}
	scriptCmd.Flags().String("domain", script.DefaultCookieDomain, "Cookie domain for the currency cookie")
	scriptCmd.Flags().String("device", "light", "Device appearance a system theme resolves against")

	// ── version subcommand ────────────────────────────────────────────────────
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print CalqShell version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("CalqShell %s  |  Author: vesaa\n", version)
		},
	}

	root.AddCommand(serveCmd, agentCmd, prefsCmd, scriptCmd, versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cfg *config.Config, log *zap.Logger) error {
	backend, err := openBackend(cfg, log)
	if err != nil {
		return err
	}
	st := store.New(backend, log)

	reg := bridge.NewRegistry(bridge.WithReloadDelay(cfg.ReloadDelay()), bridge.WithLogger(log))
	defer reg.Close()

	gen := script.New(cfg.CookieDomain)
	device := appearance.NewMonitor(appearance.Detect(cfg.Appearance))
	currency := preference.NewCurrency(st, reg, gen, log)
	theme := preference.NewTheme(st, reg, gen, device, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt) // os.Interrupt = SIGINT; works on all platforms
	defer stop()

	currency.Initialize(ctx)
	theme.Initialize(ctx)
	defer theme.Watch()()

	identity := webview.Identity{
		Source:   cfg.AppSource,
		Name:     cfg.AppName,
		Version:  cfg.AppVersion,
		Platform: cfg.AppPlatform,
	}
	if identity.Platform == "" {
		identity.Platform = webview.DetectPlatform()
	}
	preload := webview.Preload(reg, currency, theme)

	sockets := webview.NewSocketServer(reg, preload, log)
	if d := strings.TrimPrefix(cfg.CookieDomain, "."); d != "" {
		sockets.AllowOrigins(d, "*."+d)
	}

	srv := server.New(cfg, server.Deps{
		Currency: currency,
		Theme:    theme,
		Registry: reg,
		Device:   device,
		Sockets:  sockets,
		Identity: identity,
		Log:      log,
	})

	gin.SetMode(gin.ReleaseMode)
	corsMiddleware := func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}

	// ── Control-plane engine (7070) ────────────────────────────────────────
	ctrlEngine := gin.New()
	ctrlEngine.Use(gin.Recovery(), corsMiddleware)
	srv.RegisterControlRoutes(ctrlEngine)

	// ── Data-plane engine (7071) ───────────────────────────────────────────
	dataEngine := gin.New()
	dataEngine.Use(gin.Recovery())
	srv.RegisterDataRoutes(dataEngine)

	ctrlAddr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ControlPort)
	dataAddr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.DataPort)

	fmt.Printf("  ✓ Control plane (JWT API)               → http://%s\n", ctrlAddr)
	fmt.Printf("  ✓ Data    plane (hosted page + bridge)  → http://%s/?token=%s\n", dataAddr, cfg.BridgeToken)
	fmt.Printf("  ✓ Currency: %s  |  Theme: %s → %s\n", currency.Selected().Code, theme.Selected().Mode, theme.Resolved())
	fmt.Printf("  ✓ Reload delay: %s\n\n", cfg.ReloadDelay())

	ctrlSrv := &http.Server{Addr: ctrlAddr, Handler: ctrlEngine}
	dataSrv := &http.Server{Addr: dataAddr, Handler: dataEngine}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listen(ctrlSrv) })
	g.Go(func() error { return listen(dataSrv) })

	if cfg.AppearanceFile != "" {
		w := appearance.NewWatcher(cfg.AppearanceFile, 0, func(s prefs.Scheme) { device.Set(s) }, log)
		g.Go(func() error { return w.Watch(gctx) })
	}

	if cfg.BrowserEnabled {
		browser, err := webview.NewBrowser(gctx, webview.BrowserOptions{
			Headless:  cfg.BrowserHeadless,
			ExecPath:  cfg.BrowserExecPath,
			RemoteURL: cfg.BrowserRemoteURL,
			Identity:  identity,
		}, reg, preload, log)
		if err != nil {
			return err
		}
		defer browser.Close()
		for _, url := range cfg.BrowserURLs {
			if _, err := browser.Open(url); err != nil {
				log.Warn("tab not opened", zap.String("url", url), zap.Error(err))
			}
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		fmt.Println("\n  → Shutting down gracefully…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ctrlSrv.Shutdown(shutdownCtx)
		_ = dataSrv.Shutdown(shutdownCtx)
		return nil
	})
	return g.Wait()
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	}
	return nil
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log, err := logging.New(cfg.LogDebug)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, log, nil
}

func openBackend(cfg *config.Config, log *zap.Logger) (store.Backend, error) {
	if cfg.DBDriver == "memory" {
		return store.NewMemoryBackend(), nil
	}
	db, err := store.OpenDB(cfg.DBDriver, cfg.DBPath, log)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return store.NewSQLBackend(db), nil
}

// withStore runs fn against the configured store.
func withStore(fn func(context.Context, *store.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	backend, err := openBackend(cfg, nil)
	if err != nil {
		return err
	}
	return fn(context.Background(), store.New(backend, nil))
}

func lookup(kind, id string) (prefs.Value, error) {
	k, err := prefs.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return prefs.Lookup(k, id)
}

// containsPort checks whether addr already has a port suffix.
func containsPort(addr string) bool {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return true
		}
		if addr[i] == '/' {
			break
		}
	}
	return false
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
