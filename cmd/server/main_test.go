package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/hangman/internal/factory"
	"github.com/mcoot/hangman/internal/testutil"
)

func testFactoryConfig(t *testing.T) factory.Config {
	t.Helper()

	words := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(words, []byte("gato\nperro\n"), 0o600))

	return factory.Config{
		Logger:       testutil.NopLogger(),
		StorageType:  factory.StorageTypeSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "hangman.db"),
		WordListPath: words,
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, testFactoryConfig(t), 0, testutil.NopLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}

func TestRunReturnsBindError(t *testing.T) {
	taken, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = taken.Close() }()
	port := taken.Addr().(*net.TCPAddr).Port

	done := make(chan error, 1)
	go func() {
		done <- run(context.Background(), testFactoryConfig(t), port, testutil.NopLogger())
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listen")
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return on bind failure")
	}
}

func TestRunRejectsBadFactoryConfig(t *testing.T) {
	fc := testFactoryConfig(t)
	fc.WordListPath = ""

	err := run(context.Background(), fc, 0, testutil.NopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create application")
}
