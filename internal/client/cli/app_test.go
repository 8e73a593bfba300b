package cli

import (
	"bufio"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/filevault/internal/client/config"
	"github.com/dmitrijs2005/filevault/internal/client/models"
	"github.com/dmitrijs2005/filevault/internal/client/services"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/testserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) (*testserver.Server, string) {
	t.Helper()
	srv := testserver.New()
	require.NoError(t, srv.AddUser("alice", "pw"))
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return srv, hs.URL
}

func newTestApp(t *testing.T, baseURL, sessionDB string) *App {
	t.Helper()
	return newTestAppOnTab(t, baseURL, sessionDB, "")
}

func newTestAppOnTab(t *testing.T, baseURL, sessionDB, tab string) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ServerBaseURL = baseURL
	cfg.SessionDB = sessionDB
	if tab != "" {
		cfg.Tab = tab
	}

	app, err := NewApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(app.Close)

	app.reader = bufio.NewReader(strings.NewReader(""))
	app.out = io.Discard
	return app
}

func stubInputs(t *testing.T, username string, password string, confirm bool) {
	t.Helper()
	origST, origGP, origGC := getSimpleText, getPassword, getConfirmation
	getSimpleText = func(*bufio.Reader, string, io.Writer) (string, error) { return username, nil }
	getPassword = func(io.Writer) ([]byte, error) { return []byte(password), nil }
	getConfirmation = func(*bufio.Reader, string, io.Writer) bool { return confirm }
	t.Cleanup(func() {
		getSimpleText, getPassword, getConfirmation = origST, origGP, origGC
	})
}

func joined(lines *[]string) string {
	return strings.Join(*lines, "\n")
}

func writeFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("z", size)), 0o600))
	return path
}

func TestApp_FullSession(t *testing.T) {
	out := captureOutput(t)
	_, baseURL := newBackend(t)
	app := newTestApp(t, baseURL, "")
	ctx := context.Background()
	stubInputs(t, "alice", "pw", true)

	assert.Equal(t, services.PageLogin, app.currentPage())
	assert.Equal(t, "(login)", app.getStatus())

	require.NoError(t, app.Login(ctx))
	app.syncPage(ctx)
	assert.Equal(t, services.PageMain, app.currentPage())
	assert.Equal(t, "(alice main)", app.getStatus())
	assert.Contains(t, joined(out), services.MsgLoginSucceeded)
	assert.Contains(t, joined(out), msgNoFiles, "entering main loads the list")

	path := writeFile(t, "notes.txt", 10240)
	require.NoError(t, app.Upload(ctx, path))
	assert.Contains(t, joined(out), services.MsgUploaded)
	assert.Contains(t, joined(out), "文件名: notes.txt")
	assert.Contains(t, joined(out), baseURL+"/files/download/")

	v := app.svc.Files.View()
	require.Len(t, v.Records, 1)
	id := v.Records[0].UniqueID
	assert.Contains(t, joined(out), "10 kB")

	*out = nil
	require.NoError(t, app.Open(ctx, id))
	assert.Equal(t, []string{baseURL + "/files/download/" + id}, *out)

	*out = nil
	require.NoError(t, app.View(ctx, id))
	assert.Contains(t, joined(out), "文件名: notes.txt")
	assert.Contains(t, joined(out), "Unique ID: "+id)

	dest := filepath.Join(t.TempDir(), "copy.txt")
	require.NoError(t, app.Download(ctx, id, dest))
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Len(t, got, 10240)

	*out = nil
	require.NoError(t, app.Delete(ctx, id))
	assert.Contains(t, joined(out), services.MsgDeleted)
	assert.Empty(t, app.svc.Files.View().Records)

	require.NoError(t, app.Logout(ctx, false))
	app.syncPage(ctx)
	assert.Equal(t, services.PageLogin, app.currentPage())
	_, ok := app.store.Get()
	assert.False(t, ok)
	assert.Contains(t, joined(out), services.MsgLoggedOut)
}

func TestApp_LoginFailureStaysOnLoginPage(t *testing.T) {
	out := captureOutput(t)
	_, baseURL := newBackend(t)
	app := newTestApp(t, baseURL, "")
	stubInputs(t, "alice", "wrong", true)

	require.Error(t, app.Login(context.Background()))
	app.syncPage(context.Background())

	assert.Equal(t, services.PageLogin, app.currentPage())
	assert.Contains(t, *out, "错误: Incorrect username or password")
}

func TestApp_UploadWithoutFile(t *testing.T) {
	out := captureOutput(t)
	_, baseURL := newBackend(t)
	app := newTestApp(t, baseURL, "")
	stubInputs(t, "alice", "pw", true)
	require.NoError(t, app.Login(context.Background()))

	err := app.Upload(context.Background(), "")
	require.ErrorIs(t, err, services.ErrLocalValidation)
	assert.Contains(t, *out, services.MsgNoFileSelected)
}

func TestApp_DeleteDeclined(t *testing.T) {
	captureOutput(t)
	srv, baseURL := newBackend(t)
	app := newTestApp(t, baseURL, "")
	stubInputs(t, "alice", "pw", false)
	ctx := context.Background()
	require.NoError(t, app.Login(ctx))
	require.NoError(t, app.Upload(ctx, writeFile(t, "a.txt", 1)))
	id := app.svc.Files.View().Records[0].UniqueID

	require.ErrorIs(t, app.Delete(ctx, id), services.ErrNotConfirmed)
	assert.Equal(t, 1, srv.FileCount("alice"))

	app.Logout(ctx, false)
	assert.Equal(t, services.PageMain, app.currentPage(), "declined logout keeps the page")
}

func TestApp_UsageErrors(t *testing.T) {
	out := captureOutput(t)
	_, baseURL := newBackend(t)
	app := newTestApp(t, baseURL, "")
	ctx := context.Background()

	require.ErrorIs(t, app.Delete(ctx, ""), errUsage)
	require.ErrorIs(t, app.Open(ctx, ""), errUsage)
	require.ErrorIs(t, app.View(ctx, ""), errUsage)
	require.ErrorIs(t, app.Download(ctx, "", ""), errUsage)
	assert.Contains(t, joined(out), "Usage: delete <unique_id>")
}

func TestApp_DownloadMissingRemovesPartialFile(t *testing.T) {
	captureOutput(t)
	_, baseURL := newBackend(t)
	app := newTestApp(t, baseURL, "")
	dest := filepath.Join(t.TempDir(), "nothing")

	require.Error(t, app.Download(context.Background(), "missing", dest))
	_, err := os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestApp_DownloadFailureKeepsExistingFile(t *testing.T) {
	out := captureOutput(t)
	_, baseURL := newBackend(t)
	app := newTestApp(t, baseURL, "")
	dir := t.TempDir()
	dest := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(dest, []byte("precious"), 0o600))

	require.Error(t, app.Download(context.Background(), "missing", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(got))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file is left behind")
	assert.Contains(t, *out, "错误: File not found in database")
}

func TestApp_DownloadReplacesExistingFileOnSuccess(t *testing.T) {
	captureOutput(t)
	_, baseURL := newBackend(t)
	app := newTestApp(t, baseURL, "")
	stubInputs(t, "alice", "pw", true)
	ctx := context.Background()
	require.NoError(t, app.Login(ctx))
	require.NoError(t, app.Upload(ctx, writeFile(t, "a.txt", 3)))
	id := app.svc.Files.View().Records[0].UniqueID

	dir := t.TempDir()
	dest := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(dest, []byte("old content"), 0o600))

	require.NoError(t, app.Download(ctx, id, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "zzz", string(got))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestApp_RegisterThenLogin(t *testing.T) {
	out := captureOutput(t)
	_, baseURL := newBackend(t)
	app := newTestApp(t, baseURL, "")
	ctx := context.Background()
	stubInputs(t, "bob", "pw2", true)

	require.NoError(t, app.Register(ctx))
	app.syncPage(ctx)
	assert.Equal(t, services.PageLogin, app.currentPage())
	assert.Contains(t, *out, services.MsgRegistered)

	require.Error(t, app.Register(ctx))
	assert.Contains(t, *out, "错误: Username already registered")

	require.NoError(t, app.Login(ctx))
	app.syncPage(ctx)
	assert.Equal(t, "(bob main)", app.getStatus())
}

func TestApp_SessionsAndLogoutAll(t *testing.T) {
	out := captureOutput(t)
	srv, baseURL := newBackend(t)
	require.NoError(t, srv.AddUser("bob", "pw"))
	dbPath := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	stubInputs(t, "alice", "pw", true)
	work := newTestAppOnTab(t, baseURL, dbPath, "work")
	require.NoError(t, work.Login(ctx))
	work.Close()

	stubInputs(t, "bob", "pw", true)
	home := newTestAppOnTab(t, baseURL, dbPath, "home")
	require.NoError(t, home.Login(ctx))

	*out = nil
	require.NoError(t, home.Sessions(ctx))
	require.Len(t, *out, 1)
	lines := strings.Split((*out)[0], "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "TAB")
	assert.Regexp(t, `^\*\s+home\s+bob$`, lines[1])
	assert.Regexp(t, `^\s+work\s+alice$`, lines[2])

	require.NoError(t, home.Logout(ctx, true))
	assert.Contains(t, *out, msgAllSessionsCleared)

	*out = nil
	require.NoError(t, home.Sessions(ctx))
	assert.Equal(t, []string{msgNoSessions}, *out)

	again := newTestAppOnTab(t, baseURL, dbPath, "work")
	assert.Equal(t, services.PageLogin, again.currentPage(), "other tabs were logged out too")
}

func TestApp_SessionsWithoutDatabase(t *testing.T) {
	out := captureOutput(t)
	_, baseURL := newBackend(t)
	app := newTestApp(t, baseURL, "")
	stubInputs(t, "alice", "pw", true)
	ctx := context.Background()

	require.NoError(t, app.Sessions(ctx))
	assert.Equal(t, []string{msgNotPersisted}, *out)

	require.NoError(t, app.Login(ctx))
	require.NoError(t, app.Logout(ctx, true))
	assert.Equal(t, services.PageLogin, app.currentPage())
	assert.Contains(t, *out, msgNotPersisted)
}

func TestApp_SessionSurvivesRestart(t *testing.T) {
	captureOutput(t)
	_, baseURL := newBackend(t)
	dbPath := filepath.Join(t.TempDir(), "state", "session.db")
	stubInputs(t, "alice", "pw", true)

	first := newTestApp(t, baseURL, dbPath)
	require.NoError(t, first.Login(context.Background()))
	first.Close()

	second := newTestApp(t, baseURL, dbPath)
	assert.Equal(t, services.PageMain, second.currentPage())
	_, ok := second.store.Get()
	assert.True(t, ok)
}

func TestApp_RestoredButRevokedSessionReturnsToLogin(t *testing.T) {
	out := captureOutput(t)
	srv, baseURL := newBackend(t)
	dbPath := filepath.Join(t.TempDir(), "session.db")
	stubInputs(t, "alice", "pw", true)

	first := newTestApp(t, baseURL, dbPath)
	require.NoError(t, first.Login(context.Background()))
	first.Close()
	srv.RevokeAll()

	second := newTestApp(t, baseURL, dbPath)
	second.syncPage(context.Background())

	assert.Equal(t, services.PageLogin, second.currentPage())
	assert.Contains(t, *out, services.MsgSessionExpired)
	_, ok := second.store.Get()
	assert.False(t, ok)
}

func TestApp_RunDrivesTheREPL(t *testing.T) {
	out := captureOutput(t)
	_, baseURL := newBackend(t)
	app := newTestApp(t, baseURL, "")
	app.reader = bufio.NewReader(strings.NewReader("list\nhelp\nexit\n"))

	app.Run(context.Background())

	assert.Contains(t, *out, services.MsgLoginRequired)
	assert.Contains(t, *out, helpLogin)
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestNewApp_RejectsBadBaseURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ServerBaseURL = "not a url"

	_, err := NewApp(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
}

func TestFormatFiles(t *testing.T) {
	assert.Equal(t, msgNoFiles, formatFiles(services.FileListView{State: services.ViewPopulated}))

	s := formatFiles(services.FileListView{State: services.ViewPopulated, Records: []models.FileRecord{
		{UniqueID: "u-1", OriginalFilename: "a.txt", FileSize: 2048},
		{UniqueID: "u-2", OriginalFilename: "b.bin", FileSize: 0},
	}})
	lines := strings.Split(s, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "UNIQUE ID"))
	assert.Contains(t, lines[1], "u-1")
	assert.Contains(t, lines[1], "2.0 kB")
	assert.Contains(t, lines[2], "0 B")
	assert.True(t, strings.HasSuffix(lines[2], "-"))
}
