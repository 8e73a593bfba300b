package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/filevault/internal/client/services"
	"github.com/dmitrijs2005/filevault/internal/client/session"
	"github.com/dustin/go-humanize"
)

const (
	msgLoadingFiles       = "正在加载文件列表..."
	msgNoFiles            = "暂无文件"
	msgNoSessions         = "暂无已保存的会话"
	msgNotPersisted       = "会话未持久化 (未设置 session_db)"
	msgAllSessionsCleared = "已清除所有标签页的会话"
)

// Navigate switches the REPL page. The page's entry work runs once the
// current command returns.
func (a *App) Navigate(p services.Page) {
	a.page = p
	a.pageEntered = true
	a.logger.Debug(context.Background(), "navigate", "page", p.String())
}

func (a *App) Notify(msg string) {
	printlnFn(msg)
}

func (a *App) Confirm(prompt string) bool {
	return getConfirmation(a.reader, prompt, a.out)
}

func (a *App) RenderLogin(s services.LoginState) {
	if s.Status != "" {
		printlnFn(s.Status)
	}
}

func (a *App) RenderUpload(s services.UploadState) {
	if s.Result == nil {
		if s.Status != "" {
			printlnFn(s.Status)
		}
		return
	}

	var b strings.Builder
	fmt.Fprintln(&b, s.Status)
	fmt.Fprintf(&b, "文件名: %s\n", s.Result.Filename)
	fmt.Fprintf(&b, "Unique ID: %s\n", s.Result.UniqueID)
	fmt.Fprintln(&b, "公开访问 URL:")
	fmt.Fprintf(&b, "  %s", a.api.AbsoluteURL(s.Result.DownloadURL))
	printlnFn(b.String())
}

func (a *App) RenderFiles(v services.FileListView) {
	switch v.State {
	case services.ViewLoading:
		printlnFn(msgLoadingFiles)
	case services.ViewError:
		printlnFn("错误: " + v.Message)
	case services.ViewPopulated:
		printlnFn(formatFiles(v))
	}
}

func formatFiles(v services.FileListView) string {
	if len(v.Records) == 0 {
		return msgNoFiles
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIQUE ID\tFILENAME\tSIZE\tUPLOADED")
	for _, r := range v.Records {
		uploaded := "-"
		if !r.CreatedAt.IsZero() {
			uploaded = r.CreatedAt.Local().Format(time.DateTime) + " (" + humanize.Time(r.CreatedAt.Time) + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.UniqueID, r.OriginalFilename, humanize.Bytes(uint64(max(r.FileSize, 0))), uploaded)
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func formatSessions(pairs map[string][]byte, current string) string {
	if current == "" {
		current = "default"
	}

	type row struct{ tab, user string }
	rows := make([]row, 0, len(pairs))
	for k, v := range pairs {
		tab, ok := session.TabFromKey(k)
		if !ok || len(v) == 0 {
			continue
		}
		user, ok := session.Subject(string(v))
		if !ok {
			user = "-"
		}
		rows = append(rows, row{tab: tab, user: user})
	}
	if len(rows) == 0 {
		return msgNoSessions
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].tab < rows[j].tab })

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tTAB\tUSER")
	for _, r := range rows {
		mark := ""
		if r.tab == current {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, r.tab, r.user)
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}
