package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/CosmoTheDev/prnotify/internal/classify"
	"github.com/CosmoTheDev/prnotify/internal/config"
	"github.com/CosmoTheDev/prnotify/internal/event"
	"github.com/CosmoTheDev/prnotify/internal/notify"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	classifyEvent   string
	classifyPayload string
	classifySend    bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Preview the messages a webhook payload would produce",
	Long: `Reads a GitHub webhook payload and prints who would be notified and
what they would be told. Nothing is sent unless --send is given.

Examples:
  prnotify classify --event pull_request --payload delivery.json
  gh api repos/acme/widgets/hooks/1/deliveries/42 --jq .request.payload \
    | prnotify classify --event pull_request_review`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyEvent, "event", "",
		"webhook event name (the X-GitHub-Event header)")
	classifyCmd.Flags().StringVar(&classifyPayload, "payload", "-",
		"payload file, or - for stdin")
	classifyCmd.Flags().BoolVar(&classifySend, "send", false,
		"deliver the messages through the configured channels")
	_ = classifyCmd.MarkFlagRequired("event")
}

func runClassify(cmd *cobra.Command, args []string) error {
	payload, err := readPayloadArg(cmd.InOrStdin(), classifyPayload)
	if err != nil {
		return err
	}

	ev, decodeErr := event.Decode(classifyEvent, payload)
	batch := classify.Classify(ev)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderBatch(ev, batch, decodeErr))

	if !classifySend || len(batch) == 0 {
		return nil
	}

	ctx := context.Background()
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	dir, closeDir, err := openDirectory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDir()

	dispatcher := notify.FromConfig(cfg, dir)
	if !dispatcher.IsAnyConfigured() {
		return fmt.Errorf("no notification channel configured")
	}
	if err := dispatcher.Send(ctx, batch); err != nil {
		return err
	}
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Sent %d message(s) via %s", len(batch), strings.Join(dispatcher.Names(), ", "))))
	return nil
}

func readPayloadArg(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" || path == "" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading payload from stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	return b, nil
}

// renderBatch formats a classification result for the terminal.
func renderBatch(ev event.Event, batch []classify.Message, decodeErr error) string {
	action := ev.EventAction()
	if action == "" {
		action = "-"
	}
	lines := []string{
		headerStyle.Render(fmt.Sprintf("%s · %s", event.Name(ev), action)),
	}
	if decodeErr != nil {
		lines = append(lines, warnStyle.Render("payload not understood: "+decodeErr.Error()))
	}
	if len(batch) == 0 {
		lines = append(lines, dimStyle.Render("No one would be notified."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	for _, m := range batch {
		lines = append(lines, messageBoxStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left,
				recipientStyle.Render("@"+m.Recipient),
				m.Body,
			),
		))
	}
	lines = append(lines, dimStyle.Render(fmt.Sprintf("%d message(s)", len(batch))))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
