package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/promptgen-backend/internal/config"
	"github.com/yungbote/promptgen-backend/internal/generator"
	"github.com/yungbote/promptgen-backend/internal/generator/engine"
	"github.com/yungbote/promptgen-backend/internal/generator/engine/mock"
	"github.com/yungbote/promptgen-backend/internal/generator/engine/oaihttp"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
	"github.com/yungbote/promptgen-backend/internal/store"
	"github.com/yungbote/promptgen-backend/internal/store/filestore"
	"github.com/yungbote/promptgen-backend/internal/store/memory"
	"github.com/yungbote/promptgen-backend/internal/store/redisstore"
	"github.com/yungbote/promptgen-backend/internal/store/sqlstore"
)

type Clients struct {
	Store     store.Store
	Generator generator.Generator

	closers []func() error
}

func wireClients(ctx context.Context, log *logger.Logger, cfg *config.Config) (Clients, error) {
	log.Info("Wiring clients...")

	var c Clients
	st, err := wireStore(ctx, log, cfg.Store, &c)
	if err != nil {
		c.Close(log)
		return Clients{}, err
	}
	c.Store = st

	eng, err := wireEngine(cfg.Generator)
	if err != nil {
		c.Close(log)
		return Clients{}, err
	}
	c.Generator = generator.NewLLM(eng, cfg.Generator.Model, cfg.Generator.Temperature, log)
	return c, nil
}

func wireStore(ctx context.Context, log *logger.Logger, cfg config.StoreConfig, c *Clients) (store.Store, error) {
	clock := store.NewClock(nil)
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))

	switch driver {
	case "memory":
		log.Warn("Using in-memory session store; saves are lost on restart")
		return memory.New(clock, log), nil

	case "file", "":
		st, err := filestore.New(cfg.Dir, clock, log)
		if err != nil {
			return nil, fmt.Errorf("init file store: %w", err)
		}
		return st, nil

	case "sqlite", "postgres":
		db, err := sqlstore.Open(driver, cfg.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("init %s store: %w", driver, err)
		}
		if sqlDB, err := db.DB(); err == nil {
			c.closers = append(c.closers, sqlDB.Close)
		}
		return sqlstore.New(db, clock, log), nil

	case "redis":
		rdb, err := redisstore.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		c.closers = append(c.closers, rdb.Close)
		return redisstore.New(rdb, cfg.RedisPrefix, clock, log), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func wireEngine(cfg config.GeneratorConfig) (engine.Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "mock", "":
		return mock.New(), nil
	case "oai_http":
		eng, err := oaihttp.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("init oai_http engine: %w", err)
		}
		return eng, nil
	}
	return nil, fmt.Errorf("unknown generator engine %q", cfg.Engine)
}

func (c Clients) Close(log *logger.Logger) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && log != nil {
			log.Warn("client close failed", "error", err)
		}
	}
}
