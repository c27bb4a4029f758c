package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/shield-staffing/shield/backend/internal/config"
	"github.com/shield-staffing/shield/backend/internal/domain"
	"github.com/shield-staffing/shield/backend/internal/repository"
	"github.com/shield-staffing/shield/backend/internal/seed"
	"github.com/shield-staffing/shield/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var managerID int64

	flag.IntVar(&op, "op", 0, "operation to run (1: insert random personnel, 2: insert random managers, 3: insert random shifts, 4: seed full demo data)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.Int64Var(&managerID, "manager-id", 0, "manager to own the random shifts")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// load config
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("cannot load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// open the database pool
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("cannot create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open only builds the pool object, it does not dial, so ping explicitly
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("cannot connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		slog.Error("no operation given")
	case 1:
		insertRandomUsers(cfg, repo, domain.RolePersonnel, n)
	case 2:
		insertRandomUsers(cfg, repo, domain.RoleManager, n)
	case 3:
		if managerID <= 0 {
			slog.Error("a valid -manager-id is required")
			return
		}
		if n <= 0 {
			slog.Error("a valid shift count is required")
			return
		}

		cnt := n
		for i := 0; i < n; i++ {
			shift := utils.GenerateRandomShift(managerID)
			if err := repo.CreateShift(context.Background(), shift); err != nil {
				slog.Error("cannot insert shift", slog.String("error", err.Error()))
				continue
			}

			cnt--
		}

		slog.Info("shifts inserted", slog.Int("count", n-cnt))
	case 4:
		seed.SeedDemoData(context.Background(), cfg, repo)
	default:
		slog.Error("unknown operation")
	}
}

func insertRandomUsers(cfg *config.Config, repo *repository.Repository, role domain.Role, n int) {
	if n <= 0 {
		slog.Error("a valid user count is required")
		return
	}

	cnt := n
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomUser(role, cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			slog.Error("cannot generate user", slog.String("error", err.Error()))
			continue
		}

		if err := repo.CreateUser(context.Background(), user); err != nil {
			slog.Error("cannot insert user", slog.String("error", err.Error()))
			continue
		}

		cnt--
	}

	slog.Info("users inserted", slog.Int("count", n-cnt), slog.String("role", string(role)))
}
