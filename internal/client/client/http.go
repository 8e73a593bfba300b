package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/client/models"
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/gabriel-vasile/mimetype"
)

const (
	registerPath = "/users/register"
	tokenPath    = "/users/token"
	uploadPath   = "/files/upload"
	listPath     = "/files/"
	fileByIDPath = "/files/"
	downloadPath = "/files/download/"
	viewPath     = "/files/view/"
)

// Fallback messages shown when the server gives no detail.
const (
	msgRegisterFailed = "注册失败"
	msgLoginFailed    = "登录失败"
	msgUploadFailed   = "上传失败"
	msgListFailed     = "获取文件列表失败"
	msgDeleteFailed   = "删除失败"
	msgViewFailed     = "获取文件信息失败"
	msgUnauthorized   = "未授权"
	msgDownloadFailed = "下载失败"
)

type HTTPClient struct {
	baseURL             *url.URL
	http                *http.Client
	credentialHeuristic bool
	logger              logging.Logger
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithoutCredentialHeuristic restricts Unauthorized classification to
// status 401.
func WithoutCredentialHeuristic() Option {
	return func(c *HTTPClient) { c.credentialHeuristic = false }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

// NewHTTPClient returns a client for the API rooted at baseURL, which must be
// an absolute http or https URL and may carry a path prefix.
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute http(s)", baseURL)
	}

	c := &HTTPClient{
		baseURL:             u,
		http:                &http.Client{},
		credentialHeuristic: true,
		logger:              logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("module", "api_client")
	return c, nil
}

func (c *HTTPClient) resolve(escapedPath string) string {
	u := *c.baseURL
	raw := strings.TrimRight(c.baseURL.EscapedPath(), "/") + escapedPath
	p, err := url.PathUnescape(raw)
	if err != nil {
		p = raw
	}
	u.Path = p
	u.RawPath = raw
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func (c *HTTPClient) DownloadURL(uniqueID string) string {
	return downloadPath + url.PathEscape(uniqueID)
}

func (c *HTTPClient) AbsoluteURL(path string) string {
	return c.resolve(path)
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *HTTPClient) do(ctx context.Context, req *http.Request) (*response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug(ctx, "api call", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode)
	return &response{status: resp.StatusCode, body: body}, nil
}

func authorize(req *http.Request, token string) {
	req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+token)
}

// transportFailure reports err, which never reached a server decision, under
// kind. The result also matches ErrUnavailable.
func transportFailure(kind error, err error) error {
	return &APIError{Kind: kind, Message: err.Error(), Cause: errors.Join(ErrUnavailable, err)}
}

// classify turns a finished exchange into nil or a classified *APIError.
// Authorized calls map 401 (and, with the heuristic, any detail mentioning
// credentials) to ErrUnauthorized.
func (c *HTTPClient) classify(res *response, kind error, fallback string, authorized bool) error {
	detail := parseDetail(res.body)

	if authorized {
		if res.status == http.StatusUnauthorized || (c.credentialHeuristic && mentionsCredentials(detail)) {
			msg := detail
			if msg == "" {
				msg = msgUnauthorized
			}
			return &APIError{Kind: ErrUnauthorized, Status: res.status, Message: msg}
		}
	}

	if res.ok() {
		return nil
	}

	if detail == "" {
		detail = fallback
	}
	return &APIError{Kind: kind, Status: res.status, Message: detail}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account. It does not log in.
func (c *HTTPClient) Register(ctx context.Context, username string, password []byte) error {
	body, err := json.Marshal(credentials{Username: username, Password: string(password)})
	if err != nil {
		return &APIError{Kind: ErrRegistrationFailed, Message: msgRegisterFailed, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(registerPath), bytes.NewReader(body))
	if err != nil {
		return transportFailure(ErrRegistrationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.do(ctx, req)
	if err != nil {
		return transportFailure(ErrRegistrationFailed, err)
	}
	return c.classify(res, ErrRegistrationFailed, msgRegisterFailed, false)
}

func (c *HTTPClient) Authenticate(ctx context.Context, username string, password []byte) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", string(password))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(tokenPath), strings.NewReader(form.Encode()))
	if err != nil {
		return "", transportFailure(ErrAuthenticationFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.do(ctx, req)
	if err != nil {
		return "", transportFailure(ErrAuthenticationFailed, err)
	}

	// Bad credentials are the caller's failure here, not an expired session.
	if err := c.classify(res, ErrAuthenticationFailed, msgLoginFailed, false); err != nil {
		return "", err
	}

	var tok models.Token
	if err := json.Unmarshal(res.body, &tok); err != nil || tok.AccessToken == "" {
		if detail := parseDetail(res.body); detail != "" {
			return "", &APIError{Kind: ErrAuthenticationFailed, Status: res.status, Message: detail}
		}
		return "", &APIError{Kind: ErrAuthenticationFailed, Status: res.status, Message: msgLoginFailed, Cause: err}
	}

	return tok.AccessToken, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (c *HTTPClient) UploadFile(ctx context.Context, token string, file io.Reader, filename string) (*models.FileRecord, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &APIError{Kind: ErrUploadRejected, Message: fmt.Sprintf("读取文件失败: %v", err), Cause: err}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", mimetype.Detect(data).String())

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, transportFailure(ErrUploadRejected, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, transportFailure(ErrUploadRejected, err)
	}
	if err := w.Close(); err != nil {
		return nil, transportFailure(ErrUploadRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(uploadPath), &buf)
	if err != nil {
		return nil, transportFailure(ErrUploadRejected, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	authorize(req, token)

	res, err := c.do(ctx, req)
	if err != nil {
		return nil, transportFailure(ErrUploadRejected, err)
	}
	if err := c.classify(res, ErrUploadRejected, msgUploadFailed, true); err != nil {
		return nil, err
	}

	var rec models.FileRecord
	if err := json.Unmarshal(res.body, &rec); err != nil {
		return nil, &APIError{Kind: ErrUploadRejected, Status: res.status, Message: msgUploadFailed, Cause: err}
	}
	return &rec, nil
}

func (c *HTTPClient) ListFiles(ctx context.Context, token string) ([]models.FileRecord, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(listPath), nil)
	if err != nil {
		return nil, transportFailure(ErrListFailed, err)
	}
	authorize(req, token)

	res, err := c.do(ctx, req)
	if err != nil {
		return nil, transportFailure(ErrListFailed, err)
	}
	if err := c.classify(res, ErrListFailed, msgListFailed, true); err != nil {
		return nil, err
	}

	files := make([]models.FileRecord, 0)
	if err := json.Unmarshal(res.body, &files); err != nil {
		return nil, &APIError{Kind: ErrListFailed, Status: res.status, Message: msgListFailed, Cause: err}
	}
	if files == nil {
		files = make([]models.FileRecord, 0)
	}
	return files, nil
}

func (c *HTTPClient) DeleteFile(ctx context.Context, token string, uniqueID string) error {
	if token == "" {
		return ErrNoToken
	}
	if uniqueID == "" {
		return &APIError{Kind: ErrDeleteFailed, Message: "缺少文件 ID"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.resolve(fileByIDPath+url.PathEscape(uniqueID)), nil)
	if err != nil {
		return transportFailure(ErrDeleteFailed, err)
	}
	authorize(req, token)

	res, err := c.do(ctx, req)
	if err != nil {
		return transportFailure(ErrDeleteFailed, err)
	}
	return c.classify(res, ErrDeleteFailed, msgDeleteFailed, true)
}

func (c *HTTPClient) ViewFile(ctx context.Context, uniqueID string) (*models.FileRecord, error) {
	if uniqueID == "" {
		return nil, &APIError{Kind: ErrViewFailed, Message: "缺少文件 ID"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(viewPath+url.PathEscape(uniqueID)), nil)
	if err != nil {
		return nil, transportFailure(ErrViewFailed, err)
	}

	res, err := c.do(ctx, req)
	if err != nil {
		return nil, transportFailure(ErrViewFailed, err)
	}
	if err := c.classify(res, ErrViewFailed, msgViewFailed, false); err != nil {
		return nil, err
	}

	var rec models.FileRecord
	if err := json.Unmarshal(res.body, &rec); err != nil {
		return nil, &APIError{Kind: ErrViewFailed, Status: res.status, Message: msgViewFailed, Cause: err}
	}
	return &rec, nil
}
