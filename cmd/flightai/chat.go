package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		Long: `Reads one message per line from standard input and prints each reply.
Blank lines are ignored; "exit" or "quit" ends the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := c.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Shutdown(context.Background()) //nolint:errcheck
			return chatLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), application)
		},
	}
}

// chatter is the part of the application the terminal loop needs.
type chatter interface {
	Chat(ctx context.Context, sessionID, text string) (reply, id string, err error)
}

// chatLoop runs one conversation over in and out until EOF, "exit", "quit",
// or ctx cancellation. A failed turn is reported and the loop continues.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, chat chatter) error {
	fmt.Fprintln(out, "✈️  Flight-AI. Ask about flight prices; type \"exit\" to quit.")

	var sessionID string
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		text := strings.TrimSpace(sc.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		reply, id, err := chat.Chat(ctx, sessionID, text)
		if err != nil {
			slog.Error("chat turn failed", "err", err)
			fmt.Fprintf(out, "AI: Error: %v\n", err)
			continue
		}
		sessionID = id
		fmt.Fprintf(out, "AI:\n%s\n", reply)
	}
}
