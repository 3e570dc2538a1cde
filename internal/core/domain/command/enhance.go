package command

import (
	"context"
	"enhancebot/internal/core/domain"
	"enhancebot/internal/core/port"
	"enhancebot/internal/core/service"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

const (
	MinScaleFactor = 1
	MaxScaleFactor = 16
)

var ErrEnhanceUsage = fmt.Errorf("usage: /enhance [enhance|denoise|sharpen] [scale %d-%d], "+
	"sent as caption or as reply to an image", MinScaleFactor, MaxScaleFactor)

type Enhance struct {
	enhancer    port.EnhanceService
	downloader  port.FileDownloader
	imageSender port.ImageSender
	textSender  port.TextSender
	auth        service.Authorizer
	track       service.Tracker
	provider    string
	model       string
	cost        float64
	command     string
}

type EnhanceConfig struct {
	Provider string
	Model    string
	Cost     float64
}

func NewEnhance(enhancer port.EnhanceService,
	downloader port.FileDownloader,
	imageSender port.ImageSender,
	textSender port.TextSender,
	auth service.Authorizer,
	track service.Tracker,
	cfg EnhanceConfig,
	command string) *Enhance {
	return &Enhance{enhancer: enhancer,
		downloader:  downloader,
		imageSender: imageSender,
		textSender:  textSender,
		auth:        auth,
		track:       track,
		provider:    cfg.Provider,
		model:       cfg.Model,
		cost:        cfg.Cost,
		command:     command}
}

func (e *Enhance) GetCommand() string {
	return e.command
}

func (e *Enhance) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	requestID, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed to generate request id: %w", err)
	}

	l := log.With().
		Str("requestId", requestID.String()).
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", e.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx = l.WithContext(ctx)

	if !e.auth.IsAuthorized(ctx, message.ChatID) {
		l.Debug().Msg("not authorized")
		return nil
	}

	if !e.track.CheckLimit(ctx, message.ChatID) {
		l.Debug().Msg("credit limit reached")
		return nil
	}

	if message.ImageURL == "" {
		_ = e.textSender.NotifyAndReturnError(ctx, errors.New("missing image, "+ErrEnhanceUsage.Error()), message)
		return nil
	}

	args, err := ParseEnhanceArgs(ParseCommandArgs(message.Text))
	if err != nil {
		_ = e.textSender.NotifyAndReturnError(ctx, err, message)
		return nil
	}

	go e.textSender.SendChatAction(ctx, message.ChatID, domain.UploadDocument)

	image, err := e.downloader.Download(ctx, message.ImageURL)
	if err != nil {
		return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("failed to download image: %w", err), message)
	}

	l.Debug().
		Str("enhancementType", string(args.Type)).
		Int("scaleFactor", args.ScaleFactor).
		Int("bytes", len(image)).
		Msg("submitting image")

	data, meta, err := e.enhancer.EnhanceImage(ctx, image, string(args.Type), args.ScaleFactor, e.model, e.provider)
	if err != nil {
		l.Error().Err(err).Msg("enhancement failed")
		return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("failed to enhance image: %w", err), message)
	}

	e.track.AddCost(message.ChatID, e.cost)

	err = e.imageSender.SendImageFileReply(ctx, message, data, FormatMetadata(meta))
	if err != nil {
		return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("failed to send enhanced image: %w", err), message)
	}

	l.Info().Int("bytes", len(data)).Msg("enhanced image sent")

	return nil
}

type EnhanceArgs struct {
	Type        domain.EnhancementType
	ScaleFactor int
}

// ParseEnhanceArgs reads an optional enhancement type and an optional scale factor, in any order.
func ParseEnhanceArgs(args string) (EnhanceArgs, error) {
	parsed := EnhanceArgs{Type: domain.Enhance, ScaleFactor: domain.DefaultScaleFactor}

	var typeSet, scaleSet bool
	for _, field := range strings.Fields(args) {
		if scale, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(field), "x")); err == nil {
			if scaleSet || scale < MinScaleFactor || scale > MaxScaleFactor {
				return EnhanceArgs{}, ErrEnhanceUsage
			}
			parsed.ScaleFactor = scale
			scaleSet = true
			continue
		}

		t := domain.EnhancementType(strings.ToLower(field))
		if typeSet || !t.Valid() {
			return EnhanceArgs{}, ErrEnhanceUsage
		}
		parsed.Type = t
		typeSet = true
	}

	return parsed, nil
}

// FormatMetadata renders result metadata as sorted "key: value" lines.
func FormatMetadata(meta map[string]string) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	sb := &strings.Builder{}
	for _, k := range keys {
		_, _ = fmt.Fprintf(sb, "%s: %s\n", k, meta[k])
	}

	return strings.TrimSuffix(sb.String(), "\n")
}
