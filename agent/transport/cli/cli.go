package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	assistantx "github.com/tanpawarit/Chative-Genie-Analytics/agent/assistant"
	transcriptx "github.com/tanpawarit/Chative-Genie-Analytics/agent/transcript"
)

const (
	DefaultTitle = "Multi-Agent System with Databricks Genie"

	historyCommand = ":history"
	clearCommand   = ":clear"
)

var rule = strings.Repeat("=", 60)

type Asker interface {
	Ask(ctx context.Context, sessionID string, question string) assistantx.Reply
	History(ctx context.Context, sessionID string) ([]transcriptx.Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

type Options struct {
	SessionID string
	Title     string
}

// Run reads questions line by line until exit, EOF or ctx is done. A
// cancelled ctx ends the session like exit does, even mid-prompt.
func Run(ctx context.Context, in io.Reader, out io.Writer, asker Asker, opts Options) error {
	sessionID := strings.TrimSpace(opts.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	fmt.Fprintln(out, title)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "Ask questions about sales or customers. Type 'exit' to quit.")
	fmt.Fprintf(out, "Commands: %s shows this session, %s clears it.\n\n", historyCommand, clearCommand)

	lines, readErr := readLines(ctx, in)

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		}

		fmt.Fprint(out, "You: ")
		var raw string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		case l, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			raw = l
		}

		line := strings.TrimSpace(raw)
		switch strings.ToLower(line) {
		case "exit", "quit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "":
			continue
		case historyCommand:
			printHistory(ctx, out, asker, sessionID)
			continue
		case clearCommand:
			if err := asker.Clear(ctx, sessionID); err != nil {
				fmt.Fprintf(out, "\nError: %v\n\n", err)
				continue
			}
			fmt.Fprintln(out, "Chat cleared.")
			continue
		}

		fmt.Fprintln(out, "\n"+rule)
		fmt.Fprintln(out, "Processing your query...")
		fmt.Fprintln(out)

		reply := asker.Ask(ctx, sessionID, line)
		if reply.Failed {
			fmt.Fprintf(out, "\n%s\n\n", reply.Text)
			continue
		}

		fmt.Fprintln(out, "\n"+rule)
		fmt.Fprintf(out, "Answer: %s\n", reply.Text)
		fmt.Fprintln(out, rule)
		fmt.Fprintln(out)
	}
}

func printHistory(ctx context.Context, out io.Writer, asker Asker, sessionID string) {
	turns, err := asker.History(ctx, sessionID)
	if err != nil {
		fmt.Fprintf(out, "\nError: %v\n\n", err)
		return
	}
	if len(turns) == 0 {
		fmt.Fprintln(out, "No messages yet.")
		return
	}
	for _, turn := range turns {
		label := "You"
		if turn.Role == transcriptx.RoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", turn.At.Local().Format("15:04:05"), label, turn.Content)
	}
	fmt.Fprintln(out)
}

// readLines feeds in to the returned channel until EOF or ctx is done. The
// error channel receives the scanner error once lines is closed.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- scanner.Err()
	}()

	return lines, errc
}
