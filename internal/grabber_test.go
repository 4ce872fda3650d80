package internal_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hbomb79/Grabber/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"
)

func testConfig(t *testing.T, tempDir string, hostAddr string) internal.GrabberConfig {
	t.Setenv("TEMP_DIR", tempDir)
	t.Setenv("HOST_ADDR", hostAddr)
	t.Setenv("WORKER_THREADS", "1")

	config, err := internal.LoadConfig("")
	require.NoError(t, err)
	return *config
}

func Test_New_CreatesTempDir(t *testing.T) {
	dir := fs.NewDir(t, "grabber")
	_, err := internal.New(testConfig(t, dir.Join("downloads"), "127.0.0.1:0"))
	require.NoError(t, err)

	assert.DirExists(t, dir.Join("downloads"))
}

func Test_New_TempDirIsFile(t *testing.T) {
	dir := fs.NewDir(t, "grabber", fs.WithFile("downloads", ""))
	_, err := internal.New(testConfig(t, dir.Join("downloads"), "127.0.0.1:0"))
	assert.Error(t, err)
}

func Test_Run_StopsOnCancel(t *testing.T) {
	grabber, err := internal.New(testConfig(t, t.TempDir(), "127.0.0.1:0"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- grabber.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("grabber did not stop after context cancellation")
	}
}

func Test_Run_ServiceCrash(t *testing.T) {
	// Occupy a port so that the REST gateway cannot start
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	grabber, err := internal.New(testConfig(t, t.TempDir(), listener.Addr().String()))
	require.NoError(t, err)

	done := make(chan error)
	go func() { done <- grabber.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "rest-gateway")
	case <-time.After(15 * time.Second):
		t.Fatal("grabber did not stop after a service crashed")
	}
}
