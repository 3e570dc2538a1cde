package command

import (
	"context"
	"enhancebot/internal/core/domain"
	"enhancebot/internal/core/port"
	"fmt"
	"strings"
	"time"
)

type Help struct {
	registry port.CommandRegistry
	sender   port.TextSender
	command  string
}

func NewHelp(registry port.CommandRegistry, ts port.TextSender, command string) *Help {
	return &Help{
		registry: registry,
		sender:   ts,
		command:  command,
	}
}

func (h *Help) GetCommand() string {
	return h.command
}

func (h *Help) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	text := "Send a photo with /enhance as caption, or reply to one with /enhance.\n\n" +
		ErrEnhanceUsage.Error() + "\n\nCommands: " + strings.Join(h.registry.ListCommands(), ", ")

	_, err := h.sender.SendMessageReply(ctx, message, text)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
