package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skycast-app/skycast/internal/agent"
	"github.com/skycast-app/skycast/internal/session"
	"github.com/skycast-app/skycast/internal/weather"
)

var useAgent bool

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask about the weather in plain language",
	Long: `Ask about the weather in plain language.

With a message argument, sends it and prints the reply. Without arguments,
starts an interactive conversation; type 'exit' or 'quit' to leave.

By default the city is extracted locally and conditions are fetched from the
weather provider. With --agent, the raw message is relayed to the hosted
conversational agent and its reply is streamed token by token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var responder session.Responder
		if useAgent {
			if err := cfg.ValidateAgent(); err != nil {
				return err
			}
			responder = &session.AgentResponder{Agent: agent.NewClient(cfg.Agent)}
		} else {
			if err := cfg.ValidateWeather(); err != nil {
				return err
			}
			store := openStore()
			if store != nil {
				defer store.Close()
			}
			direct := &session.DirectResponder{Weather: weather.NewClient(cfg.Weather)}
			if store != nil {
				direct.Recents = store
			}
			responder = direct
		}

		sess := session.New(responder)

		if len(args) > 0 {
			return runTurn(cmd.Context(), sess, strings.Join(args, " "))
		}

		fmt.Println("Ask me about the weather, e.g. \"What's the weather in Mumbai?\" (exit to quit)")
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("you> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case "exit", "quit":
				return nil
			}
			if err := runTurn(cmd.Context(), sess, line); err != nil {
				// Error banner; the conversation stays usable.
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
	},
}

// runTurn sends one message and prints the agent's reply, incrementally when
// it streams.
func runTurn(ctx context.Context, sess *session.Session, text string) error {
	var shown string
	msg, err := sess.Send(ctx, text, func(u session.Update) {
		if len(u.Text) > len(shown) && strings.HasPrefix(u.Text, shown) {
			fmt.Print(u.Text[len(shown):])
			shown = u.Text
		}
	})
	if err != nil {
		if shown != "" {
			fmt.Println()
		}
		return err
	}
	// A finalized turn that does not extend what was already printed replaced
	// it (an aborted stream swaps the partial text for the fallback sentence);
	// start a fresh line and print it whole.
	switch {
	case strings.HasPrefix(msg.Content, shown):
		fmt.Print(msg.Content[len(shown):])
	default:
		if shown != "" {
			fmt.Println()
		}
		fmt.Print(msg.Content)
	}
	fmt.Println()
	if msg.Weather != nil {
		printCard(msg.Weather)
	}
	return nil
}

// printCard renders the structured result under the reply, card-style.
func printCard(r *weather.Record) {
	fmt.Printf("  %s  %s  %d°C (feels like %d°C)\n", r.Location, r.Conditions, r.Temperature, r.FeelsLike)
	fmt.Printf("  humidity %d%%  wind %d km/h (gusts %d km/h)\n", r.Humidity, r.WindSpeed, r.WindGust)
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().BoolVar(&useAgent, "agent", false, "relay messages to the hosted conversational agent")
}
