// Package testserver is an in-memory stand-in for the file service backend.
//
// It serves the same HTTP contract as the real service (token issuing,
// upload, list, delete, public download and view) and adds hooks tests use to
// observe and steer it: a request log, one-shot fault injection, token
// revocation and a mode that reports credential failures inside 200 bodies.
package testserver

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// NaiveLayout is how the backend renders created_at: ISO-8601 without zone.
const NaiveLayout = "2006-01-02T15:04:05.999999"

const (
	detailNotAuthenticated = "Not authenticated"
	detailBadCredentials   = "Could not validate credentials"
	detailWrongLogin       = "Incorrect username or password"
	detailFileNotFound     = "File not found"
	detailUsernameTaken    = "Username already registered"
)

// Call is one request observed by the server.
type Call struct {
	Method string
	Path   string
}

type user struct {
	id           int64
	username     string
	passwordHash []byte
}

type storedFile struct {
	id         int64
	uniqueID   string
	name       string
	mimeType   string
	data       []byte
	createdAt  time.Time
	uploaderID int64
}

type fault struct {
	status int
	detail string
}

type Server struct {
	mu sync.Mutex

	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time

	users      map[string]*user
	nextUserID int64
	files      map[string]*storedFile
	nextFileID int64

	issued  []string
	revoked map[string]struct{}

	calls        []Call
	faults       map[string][]fault
	wrapAuthFail bool

	engine *gin.Engine
}

type Option func(*Server)

func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// WithTokenTTL sets the validity of issued tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithClock replaces time.Now for token issuing, validation and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(opts ...Option) *Server {
	gin.SetMode(gin.TestMode)

	secret, err := common.MakeRandHexString(32)
	if err != nil {
		secret = "testserver-secret"
	}

	s := &Server{
		secret:   []byte(secret),
		tokenTTL: 30 * time.Minute,
		now:      time.Now,
		users:    make(map[string]*user),
		files:    make(map[string]*storedFile),
		revoked:  make(map[string]struct{}),
		faults:   make(map[string][]fault),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.UseRawPath = true
	r.Use(gin.Recovery(), s.recordCall, s.injectFault)

	users := r.Group("/users")
	users.POST("/register", s.handleRegister)
	users.POST("/token", s.handleToken)

	files := r.Group("/files")
	files.GET("/download/:id", s.handleDownload)
	files.GET("/view/:id", s.handleView)

	authed := files.Group("", s.requireUser)
	authed.POST("/upload", s.handleUpload)
	authed.GET("/", s.handleList)
	authed.DELETE("/:id", s.handleDelete)

	return r
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// AddUser registers username with a bcrypt hash of password, replacing any
// existing account of that name.
func (s *Server) AddUser(username, password string) error {
	_, err := s.addUser(username, password, true)
	return err
}

var errUserExists = errors.New("user exists")

func (s *Server) addUser(username, password string, replace bool) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.users[username]; found && !replace {
		return nil, errUserExists
	}

	s.nextUserID++
	u := &user{id: s.nextUserID, username: username, passwordHash: hash}
	s.users[username] = u
	return u, nil
}

// IssueToken signs a token for username valid for ttl from now, which may be
// negative to produce an already expired token.
func (s *Server) IssueToken(username string, ttl time.Duration) (string, error) {
	tok, err := GenerateToken(username, s.secret, s.now(), ttl)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.issued = append(s.issued, tok)
	s.mu.Unlock()

	return tok, nil
}

// RevokeAll invalidates every token issued so far.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tok := range s.issued {
		s.revoked[tok] = struct{}{}
	}
}

// WrapCredentialFailures makes authorization failures answer 200 with the
// credentials detail in the body instead of 401.
func (s *Server) WrapCredentialFailures(on bool) {
	s.mu.Lock()
	s.wrapAuthFail = on
	s.mu.Unlock()
}

// FailNext makes the next request matching method and path answer status
// with detail. An empty detail sends no body. Faults queue per route.
func (s *Server) FailNext(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := method + " " + path
	s.faults[key] = append(s.faults[key], fault{status: status, detail: detail})
}

// Calls returns a copy of the request log.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Server) ResetCalls() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

// FileCount returns the number of stored files owned by username.
func (s *Server) FileCount(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return 0
	}
	n := 0
	for _, f := range s.files {
		if f.uploaderID == u.id {
			n++
		}
	}
	return n
}

func (s *Server) recordCall(c *gin.Context) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: c.Request.Method, Path: c.Request.URL.Path})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) injectFault(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path

	s.mu.Lock()
	queue := s.faults[key]
	var f *fault
	if len(queue) > 0 {
		f = &queue[0]
		s.faults[key] = queue[1:]
	}
	s.mu.Unlock()

	if f == nil {
		c.Next()
		return
	}
	if f.detail == "" {
		c.AbortWithStatus(f.status)
		return
	}
	c.AbortWithStatusJSON(f.status, gin.H{"detail": f.detail})
}
