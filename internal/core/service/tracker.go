package service

import (
	"context"
	"enhancebot/internal/core/domain"
	"enhancebot/internal/core/port"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Tracker interface {
	AddCost(chatID int64, cost float64)
	CheckLimit(ctx context.Context, chatID int64) bool
	GetSpent(chatID int64) float64
}

// UsageTracker keeps per-chat enhancement credits spent today. A daily limit of zero disables the check.
type UsageTracker struct {
	chats      map[int64]float64
	dailyLimit float64
	mutex      *sync.Mutex
	sender     port.TextSender
}

func NewUsageTracker(ctx context.Context, dailyLimit float64, sender port.TextSender) *UsageTracker {
	ut := &UsageTracker{
		chats:      make(map[int64]float64),
		mutex:      &sync.Mutex{},
		sender:     sender,
		dailyLimit: dailyLimit,
	}

	go ut.ResetDailyLimit(ctx)

	return ut
}

func (t *UsageTracker) AddCost(chatID int64, cost float64) {
	t.mutex.Lock()
	t.chats[chatID] += cost
	t.mutex.Unlock()
}

func (t *UsageTracker) GetSpent(chatID int64) float64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.chats[chatID]
}

const overLimit = "You have used up your daily enhancement credits: %.2f. Limit will reset in %s."

func (t *UsageTracker) CheckLimit(ctx context.Context, chatID int64) bool {
	if t.dailyLimit <= 0 {
		return true
	}

	if t.GetSpent(chatID) >= t.dailyLimit {
		_, err := t.sender.SendMessageReply(ctx,
			&domain.Message{ChatID: chatID},
			fmt.Sprintf(overLimit, t.dailyLimit, time.Until(getNextResetTime()).Truncate(time.Second)))
		if err != nil {
			log.Warn().Err(err).Msg("failed to send daily limit exceeded warning")
		}
		return false
	}

	return true
}

func (t *UsageTracker) ResetDailyLimit(ctx context.Context) {
	reset := getNextResetTime()

	for {
		log.Debug().Time("reset", reset).Msg("running reset timer")
		select {
		case <-time.After(time.Until(reset)):
			log.Debug().Msg("resetting daily limit")
			t.mutex.Lock()
			t.chats = make(map[int64]float64)
			t.mutex.Unlock()
			time.Sleep(time.Second)
			reset = getNextResetTime()
		case <-ctx.Done():
			log.Debug().Msg("stopping daily limit reset")
			return
		}
	}
}

func getNextResetTime() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}
