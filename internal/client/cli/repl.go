package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/client/services"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	currentPage() services.Page
	syncPage(ctx context.Context)

	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Sessions(ctx context.Context) error
	Upload(ctx context.Context, path string) error
	List(ctx context.Context) error
	Delete(ctx context.Context, uniqueID string) error
	Open(ctx context.Context, uniqueID string) error
	View(ctx context.Context, uniqueID string) error
	Download(ctx context.Context, uniqueID, dest string) error
	Logout(ctx context.Context, all bool) error
}

const (
	helpLogin = "Available commands: login, register, sessions, exit"
	helpMain  = "Available commands: upload [path], (l)ist | refresh, delete <id>, open <id>, view <id>, download <id> [path], sessions, logout [--all], exit"
)

// runREPL starts a simple read-eval-print loop for the filevault CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. After every command the page the user ended
// up on is synchronised (see App.syncPage). The loop exits on EOF or when the
// user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Login page:
//	  - help                      show available commands
//	  - login                     authenticate
//	  - register                  create an account
//	  - sessions                  list tabs with a saved session
//	  - exit | quit               leave the program
//
//	Main page:
//	  - help                      show available commands
//	  - upload [path]             upload a file (no path: retry the last selection)
//	  - list | l | refresh        reload the file list
//	  - delete <id>               delete a file after confirmation
//	  - open <id>                 print the public download link
//	  - view <id>                 show public file metadata
//	  - download <id> [path]      save a file locally
//	  - sessions                  list tabs with a saved session
//	  - logout [--all]            log out after confirmation (--all: every saved tab)
//	  - exit | quit               leave the program
//
// Main page commands typed on the login page are refused with a login hint.
// Errors returned by command handlers are ignored here; the components have
// already rendered them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("fv %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]
		arg := func(i int) string {
			if i < len(args) {
				return args[i]
			}
			return ""
		}

		onMain := a.currentPage() == services.PageMain

		switch cmd {
		case "help":
			if onMain {
				printlnFn(helpMain)
			} else {
				printlnFn(helpLogin)
			}

		case "login", "register":
			if onMain {
				printlnFn("Already logged in")
				break
			}
			if cmd == "login" {
				_ = a.Login(ctx)
			} else {
				_ = a.Register(ctx)
			}

		case "sessions":
			_ = a.Sessions(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "upload", "l", "list", "refresh", "delete", "open", "view", "download", "logout":
			if !onMain {
				printlnFn(services.MsgLoginRequired)
				break
			}
			switch cmd {
			case "upload":
				_ = a.Upload(ctx, arg(0))
			case "l", "list", "refresh":
				_ = a.List(ctx)
			case "delete":
				_ = a.Delete(ctx, arg(0))
			case "open":
				_ = a.Open(ctx, arg(0))
			case "view":
				_ = a.View(ctx, arg(0))
			case "download":
				_ = a.Download(ctx, arg(0), arg(1))
			case "logout":
				_ = a.Logout(ctx, arg(0) == "--all")
			}

		default:
			printlnFn("Unknown command:", cmd)
		}

		a.syncPage(ctx)

		if err != nil {
			return
		}
	}
}
