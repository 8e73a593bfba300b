package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/filevault/internal/client/client"
	"github.com/dmitrijs2005/filevault/internal/client/session"
	"github.com/dmitrijs2005/filevault/internal/netx"
	"github.com/dustin/go-humanize"
)

// getSimpleText, getPassword and getConfirmation are indirections used to
// facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getConfirmation = GetConfirmation

var errUsage = errors.New("usage")

func usage(text string) error {
	printlnFn("Usage:", text)
	return errUsage
}

// Login prompts for credentials and submits them through the AuthGate. The
// outcome is rendered by the gate.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "请输入用户名", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	return a.svc.Gate.OnLoginSubmit(ctx, userName, password)
}

// Register prompts for credentials and creates an account. The user logs in
// afterwards.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "请输入用户名", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	return a.svc.Gate.OnRegisterSubmit(ctx, userName, password)
}

// Upload selects path and submits it. Without a path the current selection,
// if any, is submitted again.
func (a *App) Upload(ctx context.Context, path string) error {
	if path != "" {
		a.svc.Upload.Select(filepath.Base(path), func() (io.ReadCloser, error) {
			return os.Open(path)
		})
	}
	_, err := a.svc.Upload.Submit(ctx)
	return err
}

func (a *App) List(ctx context.Context) error {
	return a.svc.Files.Refresh(ctx)
}

func (a *App) Delete(ctx context.Context, uniqueID string) error {
	if uniqueID == "" {
		return usage("delete <unique_id>")
	}
	return a.svc.Files.Delete(ctx, uniqueID)
}

// Open prints the public link of a file.
func (a *App) Open(_ context.Context, uniqueID string) error {
	if uniqueID == "" {
		return usage("open <unique_id>")
	}
	printlnFn(a.api.AbsoluteURL(a.api.DownloadURL(uniqueID)))
	return nil
}

// View prints the public metadata of a file.
func (a *App) View(ctx context.Context, uniqueID string) error {
	if uniqueID == "" {
		return usage("view <unique_id>")
	}

	rec, err := a.api.ViewFile(ctx, uniqueID)
	if err != nil {
		printlnFn("错误: " + client.UserMessage(err))
		return err
	}

	printlnFn(fmt.Sprintf("文件名: %s\nUnique ID: %s\n大小: %s\n上传时间: %s",
		rec.OriginalFilename, rec.UniqueID, humanize.Bytes(uint64(max(rec.FileSize, 0))), rec.CreatedAt.Local().Format(time.DateTime)))
	return nil
}

// Download saves the file behind the public link to dest, or to a file named
// after the id in the working directory. The content goes to a temporary file
// next to dest first; dest is only replaced once the transfer succeeded.
func (a *App) Download(ctx context.Context, uniqueID, dest string) error {
	if uniqueID == "" {
		return usage("download <unique_id> [path]")
	}
	if dest == "" {
		dest = uniqueID
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".part-*")
	if err != nil {
		printlnFn("错误: " + err.Error())
		return err
	}

	n, err := netx.Download(ctx, a.http, a.api.AbsoluteURL(a.api.DownloadURL(uniqueID)), tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), dest)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		printlnFn("错误: " + downloadMessage(err))
		return err
	}

	printlnFn(fmt.Sprintf("已保存到 %s (%s)", dest, humanize.Bytes(uint64(n))))
	return nil
}

func downloadMessage(err error) string {
	var se *netx.StatusError
	if errors.As(err, &se) {
		return client.DownloadMessage(se.Body)
	}
	return err.Error()
}

// Logout ends the session after confirmation. With all set, the sessions of
// every tab persisted in the session database are removed as well.
func (a *App) Logout(ctx context.Context, all bool) error {
	if !a.svc.Gate.Logout(ctx) || !all {
		return nil
	}
	if a.repo == nil {
		printlnFn(msgNotPersisted)
		return nil
	}
	if err := a.repo.Clear(ctx, session.KeyPrefix); err != nil {
		a.logger.Error(ctx, "clear sessions", "error", err)
		printlnFn("错误: " + err.Error())
		return err
	}
	printlnFn(msgAllSessionsCleared)
	return nil
}

// Sessions lists the tabs with a persisted session and who they belong to.
// The current tab is marked with "*".
func (a *App) Sessions(ctx context.Context) error {
	if a.repo == nil {
		printlnFn(msgNotPersisted)
		return nil
	}

	pairs, err := a.repo.List(ctx, session.KeyPrefix)
	if err != nil {
		a.logger.Error(ctx, "list sessions", "error", err)
		printlnFn("错误: " + err.Error())
		return err
	}

	printlnFn(formatSessions(pairs, a.config.Tab))
	return nil
}
