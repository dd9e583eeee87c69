package serve

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/remitrates/cmd/env"
	"github.com/sig-0/remitrates/storage/badger"
)

const defaultBadgerPath = "./data/quotes"

type serveBadgerCfg struct {
	rootCfg *serveCfg

	path string
}

// newServeBadgerCmd creates the serve badger command
func newServeBadgerCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveBadgerCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("badger", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	fs.StringVar(
		&cfg.path,
		"badger-path",
		"",
		fmt.Sprintf(
			"the badger data directory (falls back to %s, then %s)",
			env.Prefix+env.BadgerPathSuffix,
			defaultBadgerPath,
		),
	)

	return &ffcli.Command{
		Name:       "badger",
		ShortUsage: "serve badger [flags]",
		LongHelp:   "Serves the remitrates backend, using an embedded badger datastore",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveBadgerCfg) exec(ctx context.Context, _ []string) error {
	logger, err := c.rootCfg.setup()
	if err != nil {
		return err
	}

	path := c.path
	if path == "" {
		path = os.Getenv(env.Prefix + env.BadgerPathSuffix)
	}

	if path == "" {
		path = defaultBadgerPath
	}

	// Open the embedded store
	store, err := badger.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open badger store: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			logger.Error(
				"unable to gracefully close badger store",
				"err", err,
			)
		}
	}()

	logger.Info("badger store opened", "path", path)

	return c.rootCfg.run(ctx, store, logger)
}
