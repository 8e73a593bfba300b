package testserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const userKey = "user"

type fileJSON struct {
	ID               int64  `json:"id"`
	UniqueID         string `json:"unique_id"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	CreatedAt        string `json:"created_at"`
	UploaderID       int64  `json:"uploader_id"`
}

func (f *storedFile) toJSON() fileJSON {
	return fileJSON{
		ID:               f.id,
		UniqueID:         f.uniqueID,
		OriginalFilename: f.name,
		FileSize:         int64(len(f.data)),
		CreatedAt:        f.createdAt.UTC().Format(NaiveLayout),
		UploaderID:       f.uploaderID,
	}
}

type validationItem struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func missingField(c *gin.Context, where, name string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"detail": []validationItem{{Loc: []string{where, name}, Msg: "Field required", Type: "missing"}},
	})
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

type registerRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"detail": []validationItem{{Loc: []string{"body"}, Msg: "JSON decode error", Type: "json_invalid"}},
		})
		return
	}
	if req.Username == nil {
		missingField(c, "body", "username")
		return
	}
	if req.Password == nil {
		missingField(c, "body", "password")
		return
	}

	u, err := s.addUser(*req.Username, *req.Password, false)
	if errors.Is(err, errUserExists) {
		detail(c, http.StatusBadRequest, detailUsernameTaken)
		return
	}
	if err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": u.id, "username": u.username})
}

func (s *Server) handleToken(c *gin.Context) {
	username, ok := c.GetPostForm("username")
	if !ok {
		missingField(c, "body", "username")
		return
	}
	password, ok := c.GetPostForm("password")
	if !ok {
		missingField(c, "body", "password")
		return
	}

	s.mu.Lock()
	u, found := s.users[username]
	s.mu.Unlock()

	if !found || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		c.Header("WWW-Authenticate", "Bearer")
		detail(c, http.StatusUnauthorized, detailWrongLogin)
		return
	}

	tok, err := s.IssueToken(u.username, s.tokenTTL)
	if err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": tok, "token_type": "bearer"})
}

func (s *Server) rejectCredentials(c *gin.Context, msg string) {
	s.mu.Lock()
	wrap := s.wrapAuthFail
	s.mu.Unlock()

	if wrap {
		detail(c, http.StatusOK, detailBadCredentials)
		return
	}
	c.Header("WWW-Authenticate", "Bearer")
	detail(c, http.StatusUnauthorized, msg)
}

func (s *Server) requireUser(c *gin.Context) {
	header := c.GetHeader(common.AuthorizationHeaderName)
	tok, ok := strings.CutPrefix(header, common.BearerScheme)
	if !ok || tok == "" {
		s.rejectCredentials(c, detailNotAuthenticated)
		return
	}

	username, err := SubjectFromToken(tok, s.secret, s.now)
	if err != nil {
		s.rejectCredentials(c, detailBadCredentials)
		return
	}

	s.mu.Lock()
	_, revoked := s.revoked[tok]
	u, found := s.users[username]
	s.mu.Unlock()

	if revoked || !found {
		s.rejectCredentials(c, detailBadCredentials)
		return
	}

	c.Set(userKey, u)
	c.Next()
}

func currentUser(c *gin.Context) *user {
	return c.MustGet(userKey).(*user)
}

func (s *Server) handleUpload(c *gin.Context) {
	u := currentUser(c)

	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			missingField(c, "body", "file")
			return
		}
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	src, err := fh.Open()
	if err != nil {
		detail(c, http.StatusInternalServerError, fmt.Sprintf("Could not save file: %v", err))
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		detail(c, http.StatusInternalServerError, fmt.Sprintf("Could not save file: %v", err))
		return
	}

	s.mu.Lock()
	s.nextFileID++
	f := &storedFile{
		id:         s.nextFileID,
		uniqueID:   uuid.NewString(),
		name:       fh.Filename,
		mimeType:   fh.Header.Get("Content-Type"),
		data:       data,
		createdAt:  s.now().UTC(),
		uploaderID: u.id,
	}
	s.files[f.uniqueID] = f
	s.mu.Unlock()

	c.JSON(http.StatusOK, f.toJSON())
}

func (s *Server) handleList(c *gin.Context) {
	u := currentUser(c)

	s.mu.Lock()
	owned := make([]*storedFile, 0, len(s.files))
	for _, f := range s.files {
		if f.uploaderID == u.id {
			owned = append(owned, f)
		}
	}
	s.mu.Unlock()

	// Newest first; ids break ties between uploads in the same instant.
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].createdAt.Equal(owned[j].createdAt) {
			return owned[i].createdAt.After(owned[j].createdAt)
		}
		return owned[i].id > owned[j].id
	})

	out := make([]fileJSON, 0, len(owned))
	for _, f := range owned {
		out = append(out, f.toJSON())
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleDelete(c *gin.Context) {
	u := currentUser(c)
	id := c.Param("id")

	s.mu.Lock()
	f, ok := s.files[id]
	if ok && f.uploaderID == u.id {
		delete(s.files, id)
	}
	s.mu.Unlock()

	if !ok || f.uploaderID != u.id {
		detail(c, http.StatusNotFound, detailFileNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) lookup(id string) (*storedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	return f, ok
}

func (s *Server) handleDownload(c *gin.Context) {
	f, ok := s.lookup(c.Param("id"))
	if !ok {
		detail(c, http.StatusNotFound, "File not found in database")
		return
	}

	mimeType := f.mimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", f.name))
	c.Data(http.StatusOK, mimeType, f.data)
}

func (s *Server) handleView(c *gin.Context) {
	f, ok := s.lookup(c.Param("id"))
	if !ok {
		detail(c, http.StatusNotFound, detailFileNotFound)
		return
	}
	c.JSON(http.StatusOK, f.toJSON())
}
