package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sfc-gh-cserrano/cortex-threads/internal/assemble"
	"github.com/sfc-gh-cserrano/cortex-threads/internal/chat"
	"github.com/sfc-gh-cserrano/cortex-threads/internal/config"
	"github.com/sfc-gh-cserrano/cortex-threads/internal/recency"
	"github.com/sfc-gh-cserrano/cortex-threads/pkg/cortex"
)

func init() {
	rootCmd.AddCommand(threadCmd)
	threadCmd.AddCommand(threadListCmd, threadShowCmd, threadRenameCmd, threadDeleteCmd)
}

var threadCmd = &cobra.Command{
	Use:   "thread",
	Short: "Manage conversation threads",
}

var threadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List threads grouped by recency",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := newClient(cfg)
		ctx := context.Background()

		threads, err := client.ListThreads(ctx)
		if err != nil {
			return err
		}
		if len(threads) == 0 {
			fmt.Println("No threads found.")
			return nil
		}

		// Message counts come from per-thread fetches; bound the fan-out.
		counts := make([]int, len(threads))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, th := range threads {
			i, th := i, th
			g.Go(func() error {
				messages, err := client.ThreadMessages(gctx, th.ThreadID)
				if err != nil {
					return err
				}
				counts[i] = len(messages)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		countOf := make(map[cortex.ThreadID]int, len(threads))
		for i, th := range threads {
			countOf[th.ThreadID] = counts[i]
		}

		now := time.Now()
		grouped := recency.Group(threads, now)
		if err := printBucket("Today", grouped.Today, countOf, now); err != nil {
			return err
		}
		if err := printBucket("Yesterday", grouped.Yesterday, countOf, now); err != nil {
			return err
		}
		return printBucket("Older", grouped.Older, countOf, now)
	},
}

func printBucket(label string, group []cortex.ThreadSummary, countOf map[cortex.ThreadID]int, now time.Time) error {
	if len(group) == 0 {
		return nil
	}
	color.New(color.Bold).Println(label)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMESSAGES\tUPDATED")
	for _, th := range group {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n",
			th.ThreadID,
			chat.ShortenName(th.ThreadName, 25),
			countOf[th.ThreadID],
			recency.Label(th.UpdatedOn, now),
		)
	}
	return w.Flush()
}

var threadShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Replay a thread's messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid thread id %q", args[0])
		}
		client := newClient(cfg)

		messages, err := client.ThreadMessages(context.Background(), cortex.ThreadID(id))
		if err != nil {
			return err
		}
		sort.SliceStable(messages, func(i, j int) bool {
			return messages[i].CreatedOn < messages[j].CreatedOn
		})
		for _, msg := range messages {
			if err := renderMessage(os.Stdout, msg); err != nil {
				return err
			}
		}
		return nil
	},
}

// renderMessage writes one stored message: user text plainly, assistant text
// with citation markers inserted at their recorded offsets, tables as
// aligned columns, charts as their raw spec.
func renderMessage(w io.Writer, msg cortex.Message) error {
	color.New(color.Bold).Fprintf(w, "[%s]\n", msg.Role)

	items, err := msg.Content()
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Text != "" {
			text := item.Text
			if msg.Role == "assistant" && len(item.Annotations) > 0 {
				text = assemble.Insert(text, assemble.Refs(item.Annotations))
			}
			fmt.Fprintln(w, text)
		}
		if item.Table != nil {
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, strings.Join(item.Table.Columns(), "\t"))
			for _, row := range item.Table.Rows() {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = fmt.Sprint(v)
				}
				fmt.Fprintln(tw, strings.Join(cells, "\t"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
		if item.Chart != nil {
			fmt.Fprintln(w, item.Chart.Spec)
		}
	}
	fmt.Fprintln(w)
	return nil
}

var threadRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a thread",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid thread id %q", args[0])
		}
		client := newClient(cfg)

		if err := client.RenameThread(context.Background(), cortex.ThreadID(id), args[1]); err != nil {
			return err
		}
		fmt.Printf("Thread %d renamed.\n", id)
		return nil
	},
}

var threadDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a thread and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid thread id %q", args[0])
		}
		client := newClient(cfg)

		if err := client.DeleteThread(context.Background(), cortex.ThreadID(id)); err != nil {
			return err
		}

		// A persisted session pointing at the deleted thread is now stale.
		store := chat.NewStore(config.SessionPath())
		if session, err := store.Load(); err == nil && session.ThreadID == cortex.ThreadID(id) {
			if err := store.Clear(); err != nil {
				slog.Warn("clearing persisted session", "error", err)
			}
		}

		fmt.Printf("Thread %d deleted.\n", id)
		return nil
	},
}
