package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/jmemory/internal/server"
	"github.com/at-ishikawa/jmemory/internal/testutil"
)

func setConfigFile(t *testing.T, cfgPath string) {
	t.Helper()
	oldConfigFile := configFile
	configFile = cfgPath
	t.Cleanup(func() { configFile = oldConfigFile })
}

func TestNewRootCommand(t *testing.T) {
	cmd := newRootCommand()

	assert.Equal(t, "jmemory-server", cmd.Use)
	configFlag := cmd.Flags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{{invalid yaml content"), 0644))
	setConfigFile(t, cfgPath)

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loadConfig()")
}

func TestNewService(t *testing.T) {
	tmpDir := t.TempDir()
	setConfigFile(t, testutil.SetupTestConfig(t, tmpDir))
	testutil.CreateDeck(t, tmpDir, testutil.KanjiDeck())

	cfg, err := loadConfig()
	require.NoError(t, err)

	svc, err := newService(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer func() {
		svc.handler.Close()
		assert.NoError(t, svc.repositories.Close())
	}()
	assert.Equal(t, ":8080", svc.httpServer.Addr)

	srv := httptest.NewServer(svc.httpServer.Handler)
	defer srv.Close()

	health, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	client := connect.NewClient[server.ListDecksRequest, server.ListDecksResponse](
		srv.Client(), srv.URL+server.ListDecksProcedure, connect.WithCodec(server.Codec()),
	)
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(&server.ListDecksRequest{}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Decks, 1)
	assert.Equal(t, "basic_kanji", resp.Msg.Decks[0].Key)
}
