package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"powerpanel/internal/auth"
	"powerpanel/internal/conf"
	"powerpanel/internal/netx"
	"powerpanel/internal/system"
	"powerpanel/internal/web"
)

type options struct {
	configPath string
	listen     string
	once       bool
	addUser    string
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("powerpanel", pflag.ContinueOnError)
	flags.StringVarP(&opts.configPath, "config", "c", "config.toml", "path to the TOML config file")
	flags.StringVar(&opts.listen, "listen", "", "listen address, overrides Web.Listen")
	flags.BoolVar(&opts.once, "once", false, "print a JSON report and exit")
	flags.StringVar(&opts.addUser, "add-user", "", "add a panel user given as name:password and exit")
	err := flags.Parse(args)
	return opts, err
}

func newLogger(cfg conf.Log) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapConfig.Level = level
	}
	return zapConfig.Build()
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := conf.LoadConfig(opts.configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLog, err := newLogger(conf.GetLog())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := zapr.NewLogger(zapLog)

	if err := run(log, opts, os.Stdout); err != nil {
		log.Error(err, "powerpanel stopped")
		zapLog.Sync()
		os.Exit(1)
	}
}

func run(log logr.Logger, opts options, stdout io.Writer) error {
	switch {
	case opts.addUser != "":
		name, password, err := auth.ParseCredential(opts.addUser)
		if err != nil {
			return err
		}
		if err := auth.NewUser(name, password); err != nil {
			return err
		}
		log.Info("user added", "user", name, "config", conf.Path)
		return nil
	case opts.once:
		return printReport(stdout)
	}
	return serve(log, opts)
}

func printReport(w io.Writer) error {
	source, err := system.ParseFrequencySource(conf.GetProbe().FrequencySource)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report, err := system.GetReport(ctx, source)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func serve(log logr.Logger, opts options) error {
	dash, err := web.NewDashboard(log.WithName("dashboard"), conf.GetProbe())
	if err != nil {
		return err
	}

	sessions := web.NewSessionService(log.WithName("sessions"))

	// Initialize the global Socket.IO server with all namespaces
	server := netx.SetupGlobalServer(log.WithName("socket.io"), "/dashboard", "/sessions")
	web.SetupDashboardService(server, dash)
	web.SetupSessionService(server, sessions)

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", netx.GetHandler())
	web.StartPages(mux)
	web.StartAssets(mux)
	web.StartIndex(mux, dash)
	web.StartLogin(mux, log.WithName("login"))
	web.StartSessionAPI(mux, sessions)

	listen := conf.GetWeb().Listen
	if opts.listen != "" {
		listen = opts.listen
	}
	if len(conf.GetUsers()) == 0 {
		log.Info("no users configured, add one with --add-user name:password")
	}

	httpServer := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
