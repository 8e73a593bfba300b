package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/filevault/internal/client/client"
	"github.com/dmitrijs2005/filevault/internal/client/models"
	"github.com/dmitrijs2005/filevault/internal/client/session"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/testserver"
	"github.com/stretchr/testify/require"
)

// ---- fake UI ----

type fakeUI struct {
	mu sync.Mutex

	answer  bool
	prompts []string
	notes   []string
	pages   []Page
	logins  []LoginState
	uploads []UploadState
	views   []FileListView

	// events is the order of everything shown, as "kind:text".
	events []string
}

func (u *fakeUI) Navigate(p Page) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pages = append(u.pages, p)
	u.events = append(u.events, "page:"+p.String())
}

func (u *fakeUI) Notify(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.notes = append(u.notes, msg)
	u.events = append(u.events, "notify:"+msg)
}

func (u *fakeUI) Confirm(prompt string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prompts = append(u.prompts, prompt)
	return u.answer
}

func (u *fakeUI) RenderLogin(s LoginState) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.logins = append(u.logins, s)
}

func (u *fakeUI) RenderUpload(s UploadState) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads = append(u.uploads, s)
	u.events = append(u.events, "upload:"+s.Status)
}

func (u *fakeUI) RenderFiles(v FileListView) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.views = append(u.views, v)
}

func (u *fakeUI) eventsCopy() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.events...)
}

func (u *fakeUI) setAnswer(v bool) {
	u.mu.Lock()
	u.answer = v
	u.mu.Unlock()
}

func (u *fakeUI) lastPage() (Page, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.pages) == 0 {
		return 0, false
	}
	return u.pages[len(u.pages)-1], true
}

func (u *fakeUI) notesCopy() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.notes...)
}

func (u *fakeUI) lastUpload() UploadState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploads[len(u.uploads)-1]
}

func (u *fakeUI) lastLogin() LoginState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.logins[len(u.logins)-1]
}

func (u *fakeUI) viewStates() []ViewState {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]ViewState, 0, len(u.views))
	for _, v := range u.views {
		out = append(out, v.State)
	}
	return out
}

// ---- stub client ----

// stubClient implements client.Client with overridable behaviour.
type stubClient struct {
	register     func(ctx context.Context, username string, password []byte) error
	authenticate func(ctx context.Context, username string, password []byte) (string, error)
	upload       func(ctx context.Context, token string, r io.Reader, name string) (*models.FileRecord, error)
	list         func(ctx context.Context, token string) ([]models.FileRecord, error)
	del          func(ctx context.Context, token, id string) error

	mu    sync.Mutex
	calls []string
}

func (s *stubClient) record(name string) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubClient) Register(ctx context.Context, username string, password []byte) error {
	s.record("register")
	if s.register == nil {
		return nil
	}
	return s.register(ctx, username, password)
}

func (s *stubClient) Authenticate(ctx context.Context, username string, password []byte) (string, error) {
	s.record("authenticate")
	if s.authenticate == nil {
		return "tok", nil
	}
	return s.authenticate(ctx, username, password)
}

func (s *stubClient) UploadFile(ctx context.Context, token string, r io.Reader, name string) (*models.FileRecord, error) {
	s.record("upload")
	if s.upload == nil {
		return &models.FileRecord{UniqueID: "u-1", OriginalFilename: name}, nil
	}
	return s.upload(ctx, token, r, name)
}

func (s *stubClient) ListFiles(ctx context.Context, token string) ([]models.FileRecord, error) {
	s.record("list")
	if s.list == nil {
		return []models.FileRecord{}, nil
	}
	return s.list(ctx, token)
}

func (s *stubClient) DeleteFile(ctx context.Context, token, id string) error {
	s.record("delete")
	if s.del == nil {
		return nil
	}
	return s.del(ctx, token, id)
}

func (s *stubClient) ViewFile(context.Context, string) (*models.FileRecord, error) {
	return nil, errors.New("not implemented")
}

func (s *stubClient) DownloadURL(id string) string { return "/files/download/" + id }

func (s *stubClient) AbsoluteURL(p string) string { return "http://stub" + p }

// ---- wiring ----

func newStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(context.Background(), session.NewMemoryCell(), "test", logging.Discard())
}

type stubEnv struct {
	api   *stubClient
	store *session.Store
	ui    *fakeUI
	svc   *Services
}

func newStubEnv(t *testing.T, api *stubClient) *stubEnv {
	t.Helper()
	store := newStore(t)
	ui := &fakeUI{answer: true}
	return &stubEnv{api: api, store: store, ui: ui, svc: New(api, store, ui, logging.Discard())}
}

// env runs the components against the in-memory backend over real HTTP.
type env struct {
	srv   *testserver.Server
	api   *client.HTTPClient
	store *session.Store
	ui    *fakeUI
	svc   *Services
}

func newEnv(t *testing.T, opts ...client.Option) *env {
	t.Helper()
	srv := testserver.New()
	require.NoError(t, srv.AddUser("alice", "pw"))
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	api, err := client.NewHTTPClient(hs.URL, opts...)
	require.NoError(t, err)

	store := newStore(t)
	ui := &fakeUI{answer: true}
	return &env{srv: srv, api: api, store: store, ui: ui, svc: New(api, store, ui, logging.Discard())}
}

func (e *env) login(t *testing.T) {
	t.Helper()
	require.NoError(t, e.svc.Gate.OnLoginSubmit(context.Background(), "alice", []byte("pw")))
}

func (e *env) upload(t *testing.T, name string, data []byte) *UploadResult {
	t.Helper()
	e.svc.Upload.Select(name, bytesOpener(data))
	res, err := e.svc.Upload.Submit(context.Background())
	require.NoError(t, err)
	return res
}

func bytesOpener(b []byte) Opener {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
}

func viewIDs(v FileListView) []string {
	out := make([]string, 0, len(v.Records))
	for _, r := range v.Records {
		out = append(out, r.UniqueID)
	}
	return out
}
