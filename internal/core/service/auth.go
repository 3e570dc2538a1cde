package service

import (
	"context"
	"enhancebot/internal/core/domain"
	"enhancebot/internal/core/port"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
)

type Authorizer interface {
	IsAuthorized(ctx context.Context, chatID int64) bool
}

// ChatAuthorizer admits only chats on the configured allowlist, since every enhancement job is billed to the
// provider account.
type ChatAuthorizer struct {
	allowlist     []int64
	adminUsername string
	sender        port.TextSender
}

func NewAuthorizer(allowlist []int64, adminUsername string, sender port.TextSender) *ChatAuthorizer {
	return &ChatAuthorizer{
		allowlist:     allowlist,
		adminUsername: adminUsername,
		sender:        sender,
	}
}

const forbidden = "You are not authorized to use this bot. Please contact @%s with this ID to get access: %d"

func (a *ChatAuthorizer) IsAuthorized(ctx context.Context, chatID int64) bool {
	if slices.Contains(a.allowlist, chatID) {
		return true
	}

	_, err := a.sender.SendMessageReply(ctx,
		&domain.Message{ChatID: chatID},
		fmt.Sprintf(forbidden, a.adminUsername, chatID))
	if err != nil {
		log.Err(err).Msg("failed to send unauthorized warning")
	}

	return false
}
