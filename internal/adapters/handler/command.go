package handler

import (
	"context"
	"enhancebot/internal/core/domain"
	"enhancebot/internal/core/domain/command"
	"enhancebot/internal/core/port"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

type FileLinker interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

type Command struct {
	commandRegistry port.CommandRegistry
	files           FileLinker
	timeout         time.Duration
}

func NewCommand(commandRegistry port.CommandRegistry, files FileLinker, timeout time.Duration) *Command {
	return &Command{commandRegistry: commandRegistry, files: files, timeout: timeout}
}

// Handle dispatches a command message or photo caption to its registered handler. The handler runs in its own
// goroutine, so slow enhancement jobs never block the update loop.
func (c *Command) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	msg := update.Message

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	log.Debug().Str("message", text).Msg("received command")

	cmd := command.ParseCommand(text)
	commandHandler, err := c.commandRegistry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		return
	}

	go func() {
		err := commandHandler.Respond(context.Background(), c.timeout, &domain.Message{
			ID:       msg.ID,
			ChatID:   msg.Chat.ID,
			Text:     text,
			Username: getUserNameFromMessage(msg.From),
			ImageURL: c.getOptionalImage(ctx, msg),
		})
		if err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

// getOptionalImage returns a download link for an image attached to the message itself or, failing that, to the
// message it replies to.
func (c *Command) getOptionalImage(ctx context.Context, msg *models.Message) string {
	fileID := findImage(msg)
	if fileID == "" && msg.ReplyToMessage != nil {
		fileID = findImage(msg.ReplyToMessage)
	}

	if fileID == "" || c.files == nil {
		return ""
	}

	f, err := c.files.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		log.Error().Err(err).Msg("error getting file from telegram api")
		return ""
	}

	return c.files.FileDownloadLink(f)
}

func findImage(msg *models.Message) string {
	if len(msg.Photo) > 0 {
		return findLargestImage(msg.Photo)
	}

	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID
	}

	return ""
}

// findLargestImage picks the highest resolution variant Telegram offers for a photo.
func findLargestImage(photos []models.PhotoSize) string {
	largest := photos[0]
	for _, photo := range photos[1:] {
		if photo.Width*photo.Height > largest.Width*largest.Height {
			largest = photo
		}
	}

	return largest.FileID
}

func getUserNameFromMessage(user *models.User) string {
	if user == nil {
		return ""
	}

	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
