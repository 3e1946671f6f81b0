package daemon

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/k1lightwave/k1-dt/internal/config"
	"github.com/k1lightwave/k1-dt/internal/journal"
)

func writeAssets(t *testing.T, n int) string {
	t.Helper()

	assets := filepath.Join(t.TempDir(), "models")
	require.NoError(t, os.Mkdir(assets, 0o755))
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("asset-%d.step", i)
		require.NoError(t, os.WriteFile(filepath.Join(assets, name), nil, 0o644))
	}
	return assets
}

func testConfig(t *testing.T, assets int) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Listen.Host = "127.0.0.1"
	cfg.Listen.Port = 0
	cfg.AssetsDir = writeAssets(t, assets)
	return cfg
}

func getJSON(t *testing.T, url string) (int, string) {
	t.Helper()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	defer client.CloseIdleConnections()

	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestDaemon_StartServesState(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := New(cfg)
	require.NoError(t, d.Start(ctx))

	status, body := getJSON(t, "http://"+d.Addr()+"/state")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"tick": 0, "assets": 3}`, body)

	status, body = getJSON(t, "http://"+d.Addr()+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status": "ok"}`, body)

	cancel()
	require.NoError(t, d.Wait())
}

func TestDaemon_JournalLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t, 2)
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")
	cfg.Journal.SnapshotEvery = config.Duration(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := New(cfg)
	require.NoError(t, d.Start(ctx))
	cancel()
	require.NoError(t, d.Wait())

	jnl, err := journal.Open(cfg.Journal.Path)
	require.NoError(t, err)
	defer jnl.Close()

	for _, kind := range []string{journal.KindAssetsLoaded, journal.KindServerStart, journal.KindServerStop} {
		n, err := jnl.CountKind(context.Background(), kind)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "expected exactly one %s observation", kind)
	}

	tail, err := jnl.Tail(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, journal.KindServerStop, tail[0].Kind)
	assert.Equal(t, 2, tail[0].Assets)
}

func TestDaemon_AutoTickAdvances(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t, 1)
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")
	cfg.Journal.SnapshotEvery = config.Duration(time.Hour)
	cfg.AutoTick.Enabled = true
	cfg.AutoTick.Interval = config.Duration(2 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := New(cfg)
	require.NoError(t, d.Start(ctx))

	require.Eventually(t, func() bool {
		return d.eng.State().Tick >= 3
	}, 2*time.Second, 5*time.Millisecond, "auto-tick loop never advanced the twin")

	status, _ := getJSON(t, "http://"+d.Addr()+"/state")
	assert.Equal(t, http.StatusOK, status)

	cancel()
	require.NoError(t, d.Wait())

	jnl, err := journal.Open(cfg.Journal.Path)
	require.NoError(t, err)
	defer jnl.Close()

	for _, kind := range []string{journal.KindAutoTickStart, journal.KindAutoTickStop} {
		n, err := jnl.CountKind(context.Background(), kind)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "expected exactly one %s observation", kind)
	}
}

func TestDaemon_StartFailsWhenPortTaken(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := New(testConfig(t, 1))
	require.NoError(t, first.Start(ctx))

	_, portStr, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := testConfig(t, 1)
	cfg.Listen.Port = port
	err = New(cfg).Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start server")

	cancel()
	require.NoError(t, first.Wait())
}

func TestDaemon_StartFailsOnBadJournalPath(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t, 1)
	cfg.Journal.Path = filepath.Join(t.TempDir(), "missing", "journal.db")

	err := New(cfg).Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open journal")
}

func TestRun_BlocksUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t, 2)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg)
	}()

	time.Sleep(50 * time.Millisecond)
	select {
	case err := <-errCh:
		t.Fatalf("daemon exited early: %v", err)
	default:
	}

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop after cancel")
	}
}
