package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MadBomber/ragdoll-core"
	"github.com/MadBomber/ragdoll-core/config"
	"github.com/MadBomber/ragdoll-core/store"
	"github.com/MadBomber/ragdoll-core/store/chromem"
	"github.com/MadBomber/ragdoll-core/store/memory"
)

// defaultCacheDir mirrors the teacher's DefaultCacheDir: a per-user cache
// directory under $HOME/.cache, with a local-directory fallback when the
// home directory can't be resolved.
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ragdoll-cli"
	}
	return filepath.Join(home, ".cache", "ragdoll-cli")
}

// buildClient wires a ragdoll.Client from CLI flags/config. When --cache-dir
// resolves to a writable directory the store persists embeddings there via
// store/chromem; falling back to store/memory keeps the CLI usable even
// when the cache directory can't be created (e.g. a read-only home).
func buildClient(chunkSize, chunkOverlap int) *ragdoll.Client {
	cfg := config.New(
		config.WithDefaultProvider(defaultProvider),
		config.WithCredentials(config.FromEnv(config.Credentials{})),
		config.WithChunking(chunkSize, chunkOverlap),
		config.WithLogger(logger()),
	)
	return ragdoll.New(openStore(), cfg, 0)
}

func openStore() store.Store {
	if cacheDir == "" {
		return memory.New()
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cache directory %s unavailable (%v), falling back to in-memory storage\n", cacheDir, err)
		return memory.New()
	}
	st, err := chromem.Open(filepath.Join(cacheDir, "embeddings"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to open persistent store (%v), falling back to in-memory storage\n", err)
		return memory.New()
	}
	return st
}
