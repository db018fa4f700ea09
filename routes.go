package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
)

type registrar interface {
	Name() string
	Register(router *mux.Router)
}

type migrator interface {
	Migrate(ctx context.Context) error
}

// backend holds the connection the stores are opened on.
type backend struct {
	driver string
	redis  *redis.Client
	db     *sql.DB
}

func openStore[E Entity[E, K], K comparable](ctx context.Context, b *backend, def *ResourceDef[E, K]) (Store[E, K], error) {
	var store Store[E, K]
	switch b.driver {
	case driverPostgres:
		store = NewPostgresStore(b.db, def)
	case driverRedis:
		store = NewRedisStore(b.redis, def)
	case driverMemory:
		store = NewMemoryStore(def)
	default:
		return nil, fmt.Errorf("unknown store driver %q", b.driver)
	}
	if m, ok := store.(migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func newResource[E Entity[E, K], K comparable](ctx context.Context, b *backend, def *ResourceDef[E, K], overrides map[string]Policy) (registrar, error) {
	store, err := openStore(ctx, b, def)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.Name, err)
	}
	return NewResource(def, store, overrides[def.Name]), nil
}

// newResources opens a store for every resource type and wraps it in its controller.
func newResources(ctx context.Context, b *backend, overrides map[string]Policy) ([]registrar, error) {
	builders := []func() (registrar, error){
		func() (registrar, error) { return newResource(ctx, b, helpRequests, overrides) },
		func() (registrar, error) { return newResource(ctx, b, recommendations, overrides) },
		func() (registrar, error) { return newResource(ctx, b, menuItems, overrides) },
		func() (registrar, error) { return newResource(ctx, b, organizations, overrides) },
		func() (registrar, error) { return newResource(ctx, b, reviews, overrides) },
	}
	resources := make([]registrar, 0, len(builders))
	for _, build := range builders {
		res, err := build()
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	for name := range overrides {
		if !hasResource(resources, name) {
			return nil, fmt.Errorf("role override for unknown resource %q", name)
		}
	}
	return resources, nil
}

func hasResource(resources []registrar, name string) bool {
	for _, res := range resources {
		if res.Name() == name {
			return true
		}
	}
	return false
}

// newRouter wires middleware and the routes of every resource.
func newRouter(resources []registrar, authn *TokenAuthenticator) http.Handler {
	router := mux.NewRouter()
	router.Use(requestLoggerMiddleware, loggingMiddleware, authMiddleware(authn))
	for _, res := range resources {
		res.Register(router)
	}
	return router
}
