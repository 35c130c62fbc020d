package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svw.info/advent/internal/config"
)

func TestOpenStore_Backends(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, backend := range []string{config.StoreFS, config.StoreSQLite, config.StoreBadger, config.StoreMemory} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Config{Store: backend, DataDir: t.TempDir()}
			st, err := openStore(cfg, log)
			require.NoError(t, err)
			defer func() { require.NoError(t, st.close()) }()

			ctx := context.Background()
			require.NoError(t, st.store.Set(ctx, "puzzle1_completed", "true"))
			v, found, err := st.store.Get(ctx, "puzzle1_completed")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "true", v)
			assert.Equal(t, backend == config.StoreFS, st.fs != nil)
		})
	}
}

func TestStatusAndReset(t *testing.T) {
	t.Setenv("ADVENT_DATA_DIR", t.TempDir())
	t.Setenv("ADVENT_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"status"})
	require.NoError(t, rootCmd.Execute())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "PUZZLE")

	rootCmd.SetArgs([]string{"reset"})
	require.Error(t, rootCmd.Execute())

	out.Reset()
	rootCmd.SetArgs([]string{"reset", "--yes"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "progress wiped")
}
