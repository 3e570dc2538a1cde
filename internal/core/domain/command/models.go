package command

import (
	"context"
	"enhancebot/internal/core/domain"
	"enhancebot/internal/core/port"
	"fmt"
	"strings"
	"time"
)

type Models struct {
	enhancer port.EnhanceService
	ts       port.TextSender
	command  string
}

func NewModels(enhancer port.EnhanceService, ts port.TextSender, command string) *Models {
	return &Models{
		enhancer: enhancer,
		ts:       ts,
		command:  command,
	}
}

func (m *Models) GetCommand() string {
	return m.command
}

func (m *Models) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	sb := &strings.Builder{}

	_, err := sb.WriteString("These enhancement models are available:\n\n")
	if err != nil {
		return fmt.Errorf("failed to construct response: %w", err)
	}

	for _, model := range m.enhancer.ListModels() {
		marker := ""
		if model.Default {
			marker = " (default)"
		}

		_, err = fmt.Fprintf(sb, " - Provider: %s, Model: %s%s\n", model.Provider, model.DisplayName, marker)
		if err != nil {
			return fmt.Errorf("failed to construct response: %w", err)
		}
	}

	_, err = fmt.Fprintf(sb, "\nEnhancement types: %s. The scale factor only applies to %s.",
		joinTypes(domain.EnhancementTypes), domain.Enhance)
	if err != nil {
		return fmt.Errorf("failed to construct response: %w", err)
	}

	_, err = m.ts.SendMessageReply(ctx, message, sb.String())
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func joinTypes(types []domain.EnhancementType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
