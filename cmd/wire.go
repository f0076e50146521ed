package cmd

import (
	"context"
	"fmt"

	"github.com/CosmoTheDev/prnotify/internal/config"
	"github.com/CosmoTheDev/prnotify/internal/database"
	"github.com/CosmoTheDev/prnotify/internal/directory"
)

// openDirectory builds the login lookup chain for cfg: the config "users"
// map first, then the users file, then the database, then GitHub profiles
// when directory.github_lookup is set. The returned func releases the
// database handle.
func openDirectory(ctx context.Context, cfg *config.Config) (directory.Chain, func(), error) {
	chain := directory.Chain{directory.NewStatic(cfg.Users)}
	closeFn := func() {}

	if cfg.Directory.UsersFile != "" {
		f, err := directory.OpenFile(cfg.Directory.UsersFile)
		if err != nil {
			return nil, closeFn, fmt.Errorf("loading users file: %w", err)
		}
		chain = append(chain, f)
	}

	if cfg.Database.Enabled {
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return nil, closeFn, err
		}
		chain = append(chain, directory.NewStore(db))
		closeFn = func() { _ = db.Close() }
	}

	if cfg.Directory.GitHubLookup {
		gh, err := directory.NewGitHub(cfg.GitHub)
		if err != nil {
			closeFn()
			return nil, func() {}, err
		}
		chain = append(chain, gh)
	}
	return chain, closeFn, nil
}

// openDatabase opens and migrates the configured user database.
func openDatabase(ctx context.Context, cfg *config.Config) (database.DB, error) {
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}
