package sender

import (
	"bytes"
	"context"
	"enhancebot/internal/core/domain"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

const (
	TelegramMessageLimit    = 4096
	TelegramCaptionLimit    = 1024
	ChatActionRepeatSeconds = 5
)

type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

type Telegram struct {
	bot TelegramBot
}

func NewTelegram(bot TelegramBot) *Telegram {
	return &Telegram{bot: bot}
}

// SendMessageReply splits text exceeding TelegramMessageLimit into consecutive replies and returns the ID of the
// last message sent.
func (s *Telegram) SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error) {
	var lastID int

	for _, part := range chunk(text, TelegramMessageLimit) {
		sent, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: message.ChatID,
			Text:   part,
			ReplyParameters: &models.ReplyParameters{
				MessageID: message.ID,
				ChatID:    message.ChatID,
			},
		})
		if err != nil {
			return lastID, fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
		}

		lastID = sent.ID
	}

	return lastID, nil
}

// SendImageFileReply uploads the image as a document, so Telegram does not recompress the enhanced result.
func (s *Telegram) SendImageFileReply(ctx context.Context, message *domain.Message, file []byte,
	caption string) error {
	caption = truncate(caption, TelegramCaptionLimit)

	params := &bot.SendDocumentParams{
		ChatID: message.ChatID,
		Document: &models.InputFileUpload{Filename: fmt.Sprintf("enhanced-%d.jpg", message.ID),
			Data: bytes.NewReader(file)},
		Caption: caption,
		ReplyParameters: &models.ReplyParameters{
			MessageID: message.ID,
			ChatID:    message.ChatID,
		},
	}

	_, err := s.bot.SendDocument(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("failed to send document response")
		return err
	}

	return nil
}

func (s *Telegram) NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error {
	_, sendErr := s.SendMessageReply(ctx, message, err.Error())
	if sendErr != nil {
		log.Error().Err(sendErr).Msg("failed to send error notification")
		return fmt.Errorf("%w: %w", sendErr, err)
	}

	return err
}

func (s *Telegram) SendChatAction(ctx context.Context, chatID int64, action domain.Action) {
	log.Debug().Int64("chatID", chatID).Msg("starting action routine")

	var chatAction models.ChatAction
	switch action {
	case domain.SendingPhoto:
		chatAction = models.ChatActionUploadPhoto
	case domain.UploadDocument:
		chatAction = models.ChatActionUploadDocument
	default:
		chatAction = models.ChatActionTyping
	}

	for {
		log.Debug().Int64("chatID", chatID).Msg("transmitting action")
		_, err := s.bot.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: chatAction,
		})
		if err != nil {
			log.Err(err).Msg("error sending chat action")
			return
		}

		select {
		case <-ctx.Done():
			log.Debug().Int64("chatID", chatID).Msg("done, stopping action routine")
			return
		case <-time.After(ChatActionRepeatSeconds * time.Second):
		}
	}
}

// truncate cuts text to at most size runes.
func truncate(text string, size int) string {
	runes := []rune(text)
	if len(runes) <= size {
		return text
	}

	return string(runes[:size])
}

func chunk(text string, size int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		n := min(size, len(runes))
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}

	return chunks
}
