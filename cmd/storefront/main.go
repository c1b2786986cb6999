package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/smarthealth/storefront/config"
	"github.com/smarthealth/storefront/internal/app"
	"github.com/smarthealth/storefront/internal/storeapi"
	"github.com/smarthealth/storefront/internal/webserver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	configFile = flag.String("c", "", "config file path")
	initdb     = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	token      = flag.String("token", "", "print a session token for user[:role] and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Auth.JwtSecret == "" {
		fmt.Fprintf(os.Stderr, "auth.jwt_secret (or %s_AUTH_JWT_SECRET) is required\n", config.EnvPrefix)
		os.Exit(1)
	}

	if *token != "" {
		user, role, _ := strings.Cut(*token, ":")
		tok, err := webserver.IssueToken(cfg.Auth.JwtSecret, user, role, 24*time.Hour)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(tok)
		return
	}

	if err := cfg.InitDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "init dirs: %v\n", err)
		os.Exit(1)
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.DropAll()
		if err := application.MigrateDB(true); err != nil {
			zap.S().Fatalf("initdb failed: %v", err)
		}
		return
	}

	storeapi.Init(application)
	server := webserver.NewWebServer(webserver.Options{
		Host:      cfg.Web.Host,
		Port:      cfg.Web.Port,
		JwtSecret: cfg.Auth.JwtSecret,
		AdminRole: cfg.Auth.AdminRole,
		Debug:     cfg.System.Debug,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		zap.S().Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		zap.S().Errorf("server stopped: %v", err)
	}
}
