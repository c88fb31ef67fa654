package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sfc-gh-cserrano/cortex-threads/internal/chat"
	"github.com/sfc-gh-cserrano/cortex-threads/internal/config"
	"github.com/sfc-gh-cserrano/cortex-threads/pkg/cortex"
)

var (
	chatThreadID int64
	chatNew      bool
	chatStrict   bool
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Int64Var(&chatThreadID, "thread", 0, "resume an existing thread id")
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "start a fresh thread instead of resuming the last one")
	chatCmd.Flags().BoolVar(&chatStrict, "strict", false, "abort a turn on the first malformed stream event")
}

var chatCmd = &cobra.Command{
	Use:   "chat [prompt...]",
	Short: "Send a prompt to the agent and stream the reply",
	Long: `Chat with the configured agent. With a prompt argument a single turn runs
and the command exits; without one an interactive loop starts. In the loop,
"/new" detaches from the current thread so the next prompt starts a fresh one,
and Ctrl-D exits.

The active thread carries over between invocations; use --new to detach, or
--thread to resume a specific one.`,
	Args: cobra.ArbitraryArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := newClient(cfg)
	store := chat.NewStore(config.SessionPath())

	session, err := resolveSession(store)
	if err != nil {
		return err
	}
	var opts []chat.ManagerOption
	if chatStrict {
		opts = append(opts, chat.StrictDecode())
	}
	manager := chat.NewManager(client, session, opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Resuming a thread: derive the causal pointer from its history before
	// the first prompt. An explicitly requested thread must exist; a stale
	// persisted one just falls back to a fresh session.
	if session.Active() {
		if _, err := manager.Refresh(ctx); err != nil {
			if chatThreadID != 0 {
				return err
			}
			slog.Warn("persisted thread unavailable, starting fresh", "error", err)
			session.Reset()
		}
	}

	if len(args) > 0 {
		if err := runTurn(ctx, manager, strings.Join(args, " ")); err != nil {
			return err
		}
		saveSession(store, session)
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}
		if prompt == "/new" {
			session.Reset()
			if err := store.Clear(); err != nil {
				slog.Warn("clearing persisted session", "error", err)
			}
			fmt.Println("Detached. The next prompt starts a new thread.")
			continue
		}
		if err := runTurn(ctx, manager, prompt); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A failed turn leaves the session usable; partial text stands.
			fmt.Fprintln(os.Stderr, "Error:", err)
			continue
		}
		saveSession(store, session)
	}
	return scanner.Err()
}

// resolveSession picks the starting session: an explicit --thread wins, --new
// forces a fresh one, otherwise the previous invocation's session resumes.
func resolveSession(store *chat.Store) (*chat.Session, error) {
	if chatThreadID != 0 {
		session := &chat.Session{}
		session.SetThread(cortex.ThreadID(chatThreadID))
		return session, nil
	}
	if chatNew {
		if err := store.Clear(); err != nil {
			slog.Warn("clearing persisted session", "error", err)
		}
		return &chat.Session{}, nil
	}
	return store.Load()
}

func saveSession(store *chat.Store, session *chat.Session) {
	if err := store.Save(session); err != nil {
		slog.Warn("persisting session", "error", err)
	}
}

// tailPrinter writes only what was appended since the previous snapshot.
// Turn snapshots are full-replace buffer values, so printing the suffix keeps
// terminal output append-only without ever duplicating text.
type tailPrinter struct {
	printed int
	c       *color.Color
}

func (p *tailPrinter) update(full string) {
	if len(full) <= p.printed {
		return
	}
	p.c.Fprint(os.Stdout, full[p.printed:])
	p.printed = len(full)
}

func runTurn(ctx context.Context, manager *chat.Manager, prompt string) error {
	reasoning := &tailPrinter{c: color.New(color.Faint)}
	answer := &tailPrinter{c: color.New()}

	answerStarted := false
	result, err := manager.Turn(ctx, prompt,
		chat.WithReasoning(reasoning.update),
		chat.WithAnswer(func(full string) {
			if !answerStarted {
				answerStarted = true
				if reasoning.printed > 0 {
					fmt.Print("\n\n")
				}
			}
			answer.update(full)
		}),
	)
	fmt.Println()
	if err != nil {
		return err
	}

	slog.Debug("turn finished",
		"thread_id", result.ThreadID,
		"messages", len(result.Messages),
	)
	return nil
}
