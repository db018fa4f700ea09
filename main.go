package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

func main() {
	issue := flag.String("issue-token", "", "print a bearer token for the comma-separated roles and exit")
	subject := flag.String("subject", "dev@ucsb.edu", "subject of the token printed by -issue-token")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	if err := initLogger(cfg.LogLevel); err != nil {
		logrus.Fatalf("invalid LOG_LEVEL %q: %v", cfg.LogLevel, err)
	}
	authn, err := NewTokenAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		logrus.Fatalf("could not set up authentication: %v", err)
	}
	if *issue != "" {
		if err := printToken(authn, *subject, *issue); err != nil {
			logrus.Fatal(err)
		}
		return
	}
	overrides, err := parseRoleOverrides(cfg.RoleOverrides)
	if err != nil {
		logrus.Fatalf("invalid ROLE_OVERRIDES: %v", err)
	}

	ctx := context.Background()
	b, err := openBackend(ctx, cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	defer b.close()

	resources, err := newResources(ctx, b, overrides)
	if err != nil {
		logrus.Fatalf("could not set up resources: %v", err)
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      newRouter(resources, authn),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logrus.Infof("server is listening on %s (store: %s)", server.Addr, cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("could not listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logrus.Info("server is shutting down")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logrus.Fatalf("server forced to shutdown: %v", err)
	}

	logrus.Info("server stopped")
}

func openBackend(ctx context.Context, cfg *Config) (*backend, error) {
	b := &backend{driver: cfg.StoreDriver}
	switch cfg.StoreDriver {
	case driverPostgres:
		db, err := sql.Open("postgres", cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("could not open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("could not connect to postgres: %w", err)
		}
		b.db = db
	case driverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("could not connect to redis (%s): %w", cfg.RedisAddr, err)
		}
		b.redis = client
	}
	return b, nil
}

func (b *backend) close() {
	if b.db != nil {
		b.db.Close()
	}
	if b.redis != nil {
		b.redis.Close()
	}
}

func printToken(authn *TokenAuthenticator, subject, roleList string) error {
	var roles []Role
	for _, name := range strings.Split(roleList, ",") {
		role, err := parseRole(name)
		if err != nil {
			return err
		}
		roles = append(roles, role)
	}
	token, err := authn.Issue(subject, 24*time.Hour, roles...)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
