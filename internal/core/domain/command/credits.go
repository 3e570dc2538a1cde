package command

import (
	"context"
	"enhancebot/internal/core/domain"
	"enhancebot/internal/core/port"
	"enhancebot/internal/core/service"
	"fmt"
	"time"
)

type Credits struct {
	tracker service.Tracker
	sender  port.TextSender
	command string
}

func NewCredits(tracker service.Tracker, ts port.TextSender, command string) *Credits {
	return &Credits{
		tracker: tracker,
		sender:  ts,
		command: command,
	}
}

func (c *Credits) GetCommand() string {
	return c.command
}

const creditsMessage = "Enhancement credits spent today within ChatID %d: %.2f."

func (c *Credits) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	_, err := c.sender.SendMessageReply(ctx, message, fmt.Sprintf(creditsMessage,
		message.ChatID, c.tracker.GetSpent(message.ChatID)))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
