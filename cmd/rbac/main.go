package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"
	"github.com/tendant/simple-rbac/migrations"
	"github.com/tendant/simple-rbac/pkg/config"
	"github.com/tendant/simple-rbac/pkg/directory"
	"github.com/tendant/simple-rbac/pkg/role"
	"github.com/tendant/simple-rbac/pkg/role/api"
)

type Config struct {
	DbConfig       config.DatabaseConfig
	RoleListConfig config.RoleListConfig
	AppConfig      app.AppConfig
	EveryoneRole   string `env:"RBAC_EVERYONE_ROLE" env-default:"everyone"`
	TenantDomain   string `env:"RBAC_DEFAULT_TENANT" env-default:"PRIMARY"`
	RunMigrations  bool   `env:"RBAC_RUN_MIGRATIONS" env-default:"true"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	if cfg.RunMigrations {
		if err := migrations.Up(cfg.DbConfig.ToDatabaseURL()); err != nil {
			slog.Error("Failed running migrations", "err", err)
			os.Exit(-1)
		}
	}

	dbConfig := cfg.DbConfig.ToDbConfig()
	pool, err := dbutils.NewDbPool(context.Background(), dbConfig)
	if err != nil {
		slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
		os.Exit(-1)
	}

	repo := role.NewPostgresRoleRepository(pool)

	resolver := directory.NewInMemResolver()
	resolver.SetEveryoneRole(cfg.TenantDomain, cfg.EveryoneRole)

	audiences := role.StaticAudienceLookup{Names: map[string]string{}}

	roleService := role.NewRoleService(repo, resolver, audiences, cfg.RoleListConfig)
	api.Routes(server.R, api.NewHandle(roleService))

	server.Run()
}
