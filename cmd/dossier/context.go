package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"dossier/internal/catalog"
	"dossier/internal/config"
	"dossier/internal/logging"
	"dossier/internal/notifications"
	"dossier/internal/records"
	"dossier/internal/workflow"
)

// commandContext lazily wires config, store, and engine so that commands
// which never touch the database (config init, help) do not create one.
type commandContext struct {
	configFlag *string
	roleFlag   *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	engineOnce sync.Once
	store      *records.Store
	engine     *workflow.Engine
	notifier   notifications.Service
	engineErr  error
}

func newCommandContext(configFlag, roleFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		roleFlag:   roleFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) role() (catalog.Role, error) {
	value := "client"
	if c.roleFlag != nil && strings.TrimSpace(*c.roleFlag) != "" {
		value = strings.TrimSpace(*c.roleFlag)
	}
	role, ok := catalog.ParseRole(value)
	if !ok {
		return "", fmt.Errorf("unknown role %q (expected client or operator)", value)
	}
	return role, nil
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureEngine() (*workflow.Engine, *records.Store, error) {
	c.engineOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.engineErr = err
			return
		}
		cat, err := catalog.Load(cfg.Paths.CatalogPath)
		if err != nil {
			c.engineErr = fmt.Errorf("load step catalog: %w", err)
			return
		}
		store, err := records.Open(cfg)
		if err != nil {
			c.engineErr = fmt.Errorf("open case database: %w", err)
			return
		}
		// Engine logs go to the log file only; stdout belongs to command
		// output.
		logger, err := logging.New(logging.Options{
			Level:            cfg.Logging.Level,
			Format:           "json",
			OutputPaths:      []string{filepath.Join(cfg.Paths.LogDir, "dossier.log")},
			ErrorOutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "dossier.log")},
		})
		if err != nil {
			store.Close()
			c.engineErr = fmt.Errorf("initialize logging: %w", err)
			return
		}
		c.store = store
		c.notifier = notifications.NewService(cfg)
		c.engine = workflow.NewEngine(cat, store, c.notifier, logger)
	})
	return c.engine, c.store, c.engineErr
}

// withEngine runs fn against the shared engine and closes the store after
// the command finishes.
func (c *commandContext) withEngine(fn func(*workflow.Engine, *records.Store) error) error {
	engine, store, err := c.ensureEngine()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(engine, store)
}

// withCaseLock serializes writes to one case across dossier processes. Two
// operators advancing the same case queue behind the lock instead of racing
// to a revision conflict.
func (c *commandContext) withCaseLock(caseID string, fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lockDir := filepath.Join(cfg.Paths.DataDir, "locks")
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(filepath.Join(lockDir, caseID+".lock"))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire case lock: %w", err)
	}
	defer lock.Unlock()
	return fn()
}
