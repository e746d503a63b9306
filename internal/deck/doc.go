// Package deck holds the deck's persistent configuration model: pages,
// buttons, the active page and the backlight level, plus the store that
// owns and mutates it.
//
// The store is the single source of truth. Every mutation follows the
// same path: validate, build a candidate snapshot, persist it through
// the repository, and only then install it in memory and publish a bus
// event. A mutation the caller saw succeed is already on disk; a
// mutation that failed left no trace.
//
// Concurrency:
//
// The store serialises mutations behind a single write lock and serves
// reads under a read lock. All reads return deep copies, so callers can
// hold and modify results without racing the store.
//
// Usage:
//
//	repo := deck.NewSQLiteRepository(db)
//	store := deck.NewStore(repo, deck.StoreOptions{
//	    KeyCount:  cfg.Device.KeyCount,
//	    Bus:       eventBus,
//	    Validator: pluginRegistry,
//	    Logger:    logger,
//	})
//	if err := store.Load(ctx); err != nil {
//	    return err
//	}
package deck
