// Command clinicctl runs one-off maintenance tasks against the clinic database.
//
//	clinicctl migrate
//	clinicctl make-admin <email>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/clinic-booking/internal/config"
	"github.com/spec-kit/clinic-booking/internal/observability"
	"github.com/spec-kit/clinic-booking/internal/persistence"
	"github.com/spec-kit/clinic-booking/internal/repository"
	"github.com/spec-kit/clinic-booking/internal/service"
)

func main() {
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline for the command")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Postgres.DSN == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	switch cmd := flag.Arg(0); cmd {
	case "migrate":
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("migrate failed", zap.Error(err))
		}
		fmt.Println("All tables created successfully.")
	case "make-admin":
		if flag.NArg() != 2 {
			usage()
			os.Exit(2)
		}
		identity := service.NewIdentityService(service.IdentityDependencies{
			UserRepo: repository.NewUserRepository(pg.PoolHandle()),
		})
		user, err := identity.PromoteToAdmin(ctx, flag.Arg(1))
		if err != nil {
			logger.Fatal("make-admin failed", zap.String("email", flag.Arg(1)), zap.Error(err))
		}
		fmt.Printf("%s is now admin.\n", user.Email)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: clinicctl [-timeout 30s] migrate | make-admin <email>\n")
	flag.PrintDefaults()
}
