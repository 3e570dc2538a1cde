package sender

import (
	"context"
	"enhancebot/internal/core/domain"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBot struct {
	mock.Mock
}

func (m *MockBot) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	args := m.Called(ctx, params)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *MockBot) SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error) {
	args := m.Called(ctx, params)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *MockBot) SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error) {
	args := m.Called(ctx, params)
	return args.Bool(0), args.Error(1)
}

func TestTelegramSender_SendMessageReply(t *testing.T) {
	longText := strings.Repeat("x", TelegramMessageLimit+10)

	tests := []struct {
		name      string
		text      string
		wantCalls int
		wantID    int
		setupMock func(mb *MockBot)
		wantErr   bool
	}{
		{
			name:      "single message",
			text:      "hello",
			wantCalls: 1,
			wantID:    123,
			setupMock: func(mb *MockBot) {
				mb.On("SendMessage", mock.Anything, mock.MatchedBy(func(params *bot.SendMessageParams) bool {
					return params.Text == "hello" && params.ReplyParameters.MessageID == 42
				})).
					Return(&models.Message{ID: 123}, nil).
					Once()
			},
			wantErr: false,
		},
		{
			name:      "message chunked in two",
			text:      longText,
			wantCalls: 2,
			wantID:    456,
			setupMock: func(mb *MockBot) {
				mb.On("SendMessage", mock.Anything, mock.MatchedBy(func(params *bot.SendMessageParams) bool {
					return len(params.Text) <= TelegramMessageLimit
				})).
					Return(&models.Message{ID: 456}, nil).
					Twice()
			},
			wantErr: false,
		},
		{
			name:      "send fails on first",
			text:      "fail",
			wantCalls: 1,
			setupMock: func(mb *MockBot) {
				mb.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("fail")).Once()
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mb := new(MockBot)
			sender := NewTelegram(mb)

			msg := &domain.Message{
				ID:     42,
				ChatID: 1001,
			}

			tc.setupMock(mb)
			id, err := sender.SendMessageReply(t.Context(), msg, tc.text)

			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrSendingReplyFailed)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.wantID, id)
			}
			mb.AssertNumberOfCalls(t, "SendMessage", tc.wantCalls)
			mb.AssertExpectations(t)
		})
	}
}

func TestTelegramSender_SendImageFileReply(t *testing.T) {
	tests := []struct {
		name        string
		file        []byte
		caption     string
		wantCaption string
		retErr      error
		wantErr     bool
	}{
		{
			name:    "success",
			file:    []byte("jpgdata"),
			caption: "provider: topazlabs",
			retErr:  nil,
			wantErr: false,
		},
		{
			name:        "caption truncated",
			file:        []byte("jpgdata"),
			caption:     strings.Repeat("c", TelegramCaptionLimit+5),
			wantCaption: strings.Repeat("c", TelegramCaptionLimit),
			retErr:      nil,
			wantErr:     false,
		},
		{
			name:        "multi-byte caption truncated on rune boundary",
			file:        []byte("jpgdata"),
			caption:     "a" + strings.Repeat("ü", TelegramCaptionLimit),
			wantCaption: "a" + strings.Repeat("ü", TelegramCaptionLimit-1),
			retErr:      nil,
			wantErr:     false,
		},
		{
			name:    "fail send",
			file:    []byte("fake"),
			retErr:  errors.New("fail"),
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mb := new(MockBot)
			sender := NewTelegram(mb)

			msg := &domain.Message{ID: 33, ChatID: 44}
			mb.On("SendDocument", mock.Anything, mock.MatchedBy(func(params *bot.SendDocumentParams) bool {
				upload, ok := params.Document.(*models.InputFileUpload)
				return ok && upload.Filename == "enhanced-33.jpg" &&
					utf8.ValidString(params.Caption) &&
					utf8.RuneCountInString(params.Caption) <= TelegramCaptionLimit &&
					(tc.wantCaption == "" || params.Caption == tc.wantCaption) &&
					params.ReplyParameters.MessageID == 33
			})).Return(&models.Message{}, tc.retErr).Once()

			err := sender.SendImageFileReply(t.Context(), msg, tc.file, tc.caption)

			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			mb.AssertExpectations(t)
		})
	}
}

func TestTelegramSender_NotifyAndReturnError(t *testing.T) {
	tests := []struct {
		name          string
		sendMsgRetErr error
		originalErr   error
	}{
		{
			name:          "send ok",
			sendMsgRetErr: nil,
			originalErr:   errors.New("original"),
		},
		{
			name:          "send fails",
			sendMsgRetErr: errors.New("sendfail"),
			originalErr:   errors.New("original"),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mb := new(MockBot)
			sender := NewTelegram(mb)

			msg := &domain.Message{ID: 55, ChatID: 88}
			mb.On("SendMessage", mock.Anything, mock.MatchedBy(func(params *bot.SendMessageParams) bool {
				return params.Text == "original"
			})).Return(&models.Message{ID: 101}, tc.sendMsgRetErr)

			err := sender.NotifyAndReturnError(t.Context(), tc.originalErr, msg)

			require.ErrorIs(t, err, tc.originalErr)
			if tc.sendMsgRetErr != nil {
				require.ErrorIs(t, err, tc.sendMsgRetErr)
			}
			mb.AssertExpectations(t)
		})
	}
}

func TestSendChatAction_StopsOnContextCancel(t *testing.T) {
	mb := new(MockBot)
	sender := NewTelegram(mb)

	ctx, cancel := context.WithCancel(t.Context())
	chatID := int64(12345)

	mb.On("SendChatAction", mock.Anything, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionUploadDocument,
	}).Return(true, nil)

	done := make(chan struct{})
	go func() {
		sender.SendChatAction(ctx, chatID, domain.UploadDocument)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("chat action routine did not stop after cancel")
	}

	mb.AssertNumberOfCalls(t, "SendChatAction", 1)
}

func TestSendChatAction_StopsOnError(t *testing.T) {
	mb := new(MockBot)
	sender := NewTelegram(mb)

	mb.On("SendChatAction", mock.Anything, mock.Anything).Return(false, errors.New("fail")).Once()

	sender.SendChatAction(t.Context(), 1, domain.Typing)

	mb.AssertExpectations(t)
}

func Test_chunk(t *testing.T) {
	assert.Equal(t, []string{"abc"}, chunk("abc", 3))
	assert.Equal(t, []string{"ab", "c"}, chunk("abc", 2))
	assert.Equal(t, []string{"äö", "ü"}, chunk("äöü", 2))
}
