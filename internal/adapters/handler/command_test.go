package handler

import (
	"context"
	"enhancebot/internal/core/domain"
	"enhancebot/internal/core/port"
	"errors"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRegistry struct {
	mock.Mock
	cmd port.Command
}

func (m *MockRegistry) Get(cmd string) (port.Command, error) {
	args := m.Called(cmd)
	return m.cmd, args.Error(1)
}

func (m *MockRegistry) Register(handler port.Command) {
	m.cmd = handler
	m.Called(handler)
}

func (m *MockRegistry) ListCommands() []string {
	m.Called()
	return []string{"foo", "bar"}
}

type MockCmdHandler struct{ mock.Mock }

func (m *MockCmdHandler) Respond(ctx context.Context, timeout time.Duration, msg *domain.Message) error {
	args := m.Called(ctx, timeout, msg)
	return args.Error(0)
}

func (m *MockCmdHandler) GetCommand() string {
	m.Called()
	return ""
}

type MockFileLinker struct{ mock.Mock }

func (m *MockFileLinker) GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error) {
	args := m.Called(ctx, params)
	f, _ := args.Get(0).(*models.File)
	return f, args.Error(1)
}

func (m *MockFileLinker) FileDownloadLink(f *models.File) string {
	return "https://api.telegram.org/file/bot/" + f.FilePath
}

func makeUpdate(txt string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   1,
			Text: txt,
			Chat: models.Chat{ID: 100},
			From: &models.User{ID: 200, Username: "bob", FirstName: "bob"},
		},
	}
}

func makePhotoUpdate(caption string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:      2,
			Caption: caption,
			Chat:    models.Chat{ID: 100},
			From:    &models.User{ID: 200, FirstName: "alice"},
			Photo: []models.PhotoSize{
				{FileID: "small", Width: 90, Height: 60},
				{FileID: "large", Width: 1280, Height: 853},
				{FileID: "medium", Width: 320, Height: 213},
			},
		},
	}
}

func makeReplyUpdate(txt string) *models.Update {
	u := makeUpdate(txt)
	u.Message.ReplyToMessage = &models.Message{
		ID:       0,
		Document: &models.Document{FileID: "doc", MimeType: "image/png"},
	}
	return u
}

func TestCommandHandler_Handle(t *testing.T) {
	type testcase struct {
		name       string
		update     *models.Update
		mockSetup  func(r *MockRegistry, ch *MockCmdHandler, fl *MockFileLinker)
		wantCalled bool
		wantMsg    *domain.Message
	}

	tests := []testcase{
		{
			name:   "no message in update",
			update: &models.Update{},
			mockSetup: func(_ *MockRegistry, _ *MockCmdHandler, _ *MockFileLinker) {
				// No call
			},
			wantCalled: false,
			wantMsg:    nil,
		},
		{
			name:   "unknown command",
			update: makeUpdate("/unknown"),
			mockSetup: func(r *MockRegistry, _ *MockCmdHandler, _ *MockFileLinker) {
				r.On("Get", "/unknown").Return(nil, errors.New("no handler"))
			},
			wantCalled: false,
			wantMsg:    nil,
		},
		{
			name:   "known command, Respond called successfully",
			update: makeUpdate("/help"),
			mockSetup: func(r *MockRegistry, ch *MockCmdHandler, _ *MockFileLinker) {
				r.On("Get", "/help").Return(ch, nil)
				ch.On("Respond", mock.Anything, mock.Anything,
					mock.AnythingOfType("*domain.Message")).Return(nil)
			},
			wantCalled: true,
			wantMsg: &domain.Message{
				ID:       1,
				ChatID:   100,
				Username: "@bob",
				ImageURL: "",
				Text:     "/help",
			},
		},
		{
			name:   "photo caption resolves largest photo",
			update: makePhotoUpdate("/enhance denoise"),
			mockSetup: func(r *MockRegistry, ch *MockCmdHandler, fl *MockFileLinker) {
				r.On("Get", "/enhance").Return(ch, nil)
				fl.On("GetFile", mock.Anything, &bot.GetFileParams{FileID: "large"}).
					Return(&models.File{FileID: "large", FilePath: "photos/large.jpg"}, nil)
				ch.On("Respond", mock.Anything, mock.Anything,
					mock.AnythingOfType("*domain.Message")).Return(nil)
			},
			wantCalled: true,
			wantMsg: &domain.Message{
				ID:       2,
				ChatID:   100,
				Username: "alice",
				ImageURL: "https://api.telegram.org/file/bot/photos/large.jpg",
				Text:     "/enhance denoise",
			},
		},
		{
			name:   "reply to image document",
			update: makeReplyUpdate("/enhance"),
			mockSetup: func(r *MockRegistry, ch *MockCmdHandler, fl *MockFileLinker) {
				r.On("Get", "/enhance").Return(ch, nil)
				fl.On("GetFile", mock.Anything, &bot.GetFileParams{FileID: "doc"}).
					Return(&models.File{FileID: "doc", FilePath: "documents/doc.png"}, nil)
				ch.On("Respond", mock.Anything, mock.Anything,
					mock.AnythingOfType("*domain.Message")).Return(nil)
			},
			wantCalled: true,
			wantMsg: &domain.Message{
				ID:       1,
				ChatID:   100,
				Username: "@bob",
				ImageURL: "https://api.telegram.org/file/bot/documents/doc.png",
				Text:     "/enhance",
			},
		},
		{
			name:   "file lookup fails",
			update: makePhotoUpdate("/enhance"),
			mockSetup: func(r *MockRegistry, ch *MockCmdHandler, fl *MockFileLinker) {
				r.On("Get", "/enhance").Return(ch, nil)
				fl.On("GetFile", mock.Anything, mock.Anything).Return(nil, errors.New("fail"))
				ch.On("Respond", mock.Anything, mock.Anything,
					mock.AnythingOfType("*domain.Message")).Return(nil)
			},
			wantCalled: true,
			wantMsg: &domain.Message{
				ID:       2,
				ChatID:   100,
				Username: "alice",
				ImageURL: "",
				Text:     "/enhance",
			},
		},
		{
			name:   "known command, Respond returns error",
			update: makeUpdate("/fail"),
			mockSetup: func(r *MockRegistry, ch *MockCmdHandler, _ *MockFileLinker) {
				r.On("Get", "/fail").Return(ch, nil)
				ch.On("Respond", mock.Anything, mock.Anything,
					mock.AnythingOfType("*domain.Message")).Return(errors.New("fail"))
			},
			wantCalled: true,
			wantMsg:    nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := new(MockRegistry)
			handler := new(MockCmdHandler)
			files := new(MockFileLinker)
			reg.cmd = handler
			tc.mockSetup(reg, handler, files)

			ch := NewCommand(reg, files, 3*time.Second)
			ch.Handle(t.Context(), nil, tc.update)

			// as the Respond() call is a goroutine, wait for finish
			time.Sleep(100 * time.Millisecond)

			reg.AssertExpectations(t)
			files.AssertExpectations(t)
			if tc.wantCalled {
				if tc.wantMsg != nil {
					handler.AssertCalled(t, "Respond",
						mock.Anything,
						3*time.Second,
						mock.MatchedBy(func(msg *domain.Message) bool {
							return assert.ObjectsAreEqual(tc.wantMsg, msg)
						}),
					)
				} else {
					handler.AssertCalled(t, "Respond",
						mock.Anything,
						mock.Anything,
						mock.AnythingOfType("*domain.Message"),
					)
				}
			} else {
				assert.Empty(t, handler.Calls)
			}
		})
	}
}

func Test_findLargestImage(t *testing.T) {
	tests := []struct {
		name   string
		photos []models.PhotoSize
		want   string
	}{
		{
			name: "returns highest resolution",
			photos: []models.PhotoSize{
				{FileID: "id1", Width: 90, Height: 90},
				{FileID: "id2", Width: 1280, Height: 1280},
				{FileID: "id3", Width: 320, Height: 320},
			},
			want: "id2",
		},
		{
			name: "single photo",
			photos: []models.PhotoSize{
				{FileID: "only", Width: 10, Height: 10},
			},
			want: "only",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, findLargestImage(tc.photos))
		})
	}
}

func Test_findImage(t *testing.T) {
	assert.Empty(t, findImage(&models.Message{Text: "/enhance"}))
	assert.Empty(t, findImage(&models.Message{Document: &models.Document{FileID: "pdf", MimeType: "application/pdf"}}))
	assert.Equal(t, "doc", findImage(&models.Message{Document: &models.Document{FileID: "doc", MimeType: "image/jpeg"}}))
}

func Test_getUserNameFromMessage(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		expected string
	}{
		{
			name:     "username present",
			user:     &models.User{Username: "alice", FirstName: "Alice"},
			expected: "@alice",
		},
		{
			name:     "empty username, fallback to first name",
			user:     &models.User{Username: "", FirstName: "Bob"},
			expected: "Bob",
		},
		{
			name:     "no user",
			user:     nil,
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, getUserNameFromMessage(tc.user))
		})
	}
}
