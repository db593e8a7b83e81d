package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"briefcast/internal/api"
	"briefcast/internal/config"
	"briefcast/internal/records"
	"briefcast/internal/tasks"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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

// withService opens the record store and task queue for the duration of one
// command. The CLI shares the daemon's database file; WAL mode and the busy
// timeout make that safe across processes.
func (c *commandContext) withService(fn func(*api.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	store, err := records.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	queue, err := tasks.NewQueue(store.DB())
	if err != nil {
		return err
	}

	svc := api.New(api.Deps{
		Store:     store,
		Scheduler: queue,
		Notifier:  newNotifier(cfg),
	})
	return fn(svc)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
