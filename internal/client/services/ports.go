// Package services holds the session and file-management logic of the client:
// AuthGate (page gating, login, logout, expiry), FileListController (the
// cached file view and deletes) and UploadController (single in-flight
// upload). They talk to the server through client.Client and to the user
// through the UI ports defined here.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/filevault/internal/client/models"
)

var (
	// ErrLocalValidation is returned when input is rejected before any request.
	ErrLocalValidation = errors.New("local validation failed")
	// ErrBusy is returned when the same action is already in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrNotConfirmed is returned when the user declined a confirmation.
	ErrNotConfirmed = errors.New("not confirmed")
)

// User-facing messages.
const (
	MsgLoginRequired  = "请先登录!"
	MsgSessionExpired = "登录已过期，请重新登录!"
	MsgLoggedOut      = "已退出登录"
	MsgLoggingIn      = "正在登录..."
	MsgLoginSucceeded = "登录成功！正在跳转..."
	MsgRegistering    = "正在注册..."
	MsgRegistered     = "注册成功！请登录"
	MsgNeedCredential = "请输入用户名和密码"
	MsgNoFileSelected = "请选择一个文件！"
	MsgUploading      = "上传中..."
	MsgUploaded       = "上传成功!"
	MsgUploadFailed   = "上传失败"
	MsgDeleted        = "删除成功"
	MsgConfirmDelete  = "确定要删除这个文件吗?"
	MsgConfirmLogout  = "确定要退出登录吗?"

	errorPrefix = "错误: "
)

type Page int

const (
	PageLogin Page = iota
	PageMain
)

func (p Page) String() string {
	switch p {
	case PageLogin:
		return "login"
	case PageMain:
		return "main"
	default:
		return "unknown"
	}
}

type Navigator interface {
	Navigate(p Page)
}

type Notifier interface {
	Notify(msg string)
}

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(prompt string) bool
}

type LoginState struct {
	Busy   bool
	Status string
}

type UploadResult struct {
	Filename    string
	UniqueID    string
	DownloadURL string
}

type UploadState struct {
	Busy   bool
	Status string
	Result *UploadResult
}

type ViewState int

const (
	ViewLoading ViewState = iota
	ViewPopulated
	ViewError
)

func (s ViewState) String() string {
	switch s {
	case ViewLoading:
		return "loading"
	case ViewPopulated:
		return "populated"
	case ViewError:
		return "error"
	default:
		return "unknown"
	}
}

// FileListView is the rendered file list. Records is only meaningful when
// State is ViewPopulated; Message only when State is ViewError.
type FileListView struct {
	State   ViewState
	Records []models.FileRecord
	Message string
}

func (v FileListView) clone() FileListView {
	if v.Records != nil {
		v.Records = append([]models.FileRecord(nil), v.Records...)
	}
	return v
}

// Renderer receives every state transition of the components.
type Renderer interface {
	RenderLogin(s LoginState)
	RenderUpload(s UploadState)
	RenderFiles(v FileListView)
}

// UI is everything the components need from the presentation layer.
type UI interface {
	Navigator
	Notifier
	Confirmer
	Renderer
}

// SessionGuard is implemented by AuthGate. Every component routes a missing
// or rejected session through it.
type SessionGuard interface {
	RequireSession(ctx context.Context) bool
	OnAuthExpired(ctx context.Context)
}

type Refresher interface {
	Refresh(ctx context.Context) error
}

type NopRenderer struct{}

func (NopRenderer) RenderLogin(LoginState)   {}
func (NopRenderer) RenderUpload(UploadState) {}
func (NopRenderer) RenderFiles(FileListView) {}
