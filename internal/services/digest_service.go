// internal/services/digest_service.go
package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"

	"vtask/internal/models"
	"vtask/internal/repositories"
)

// DigestService sends owners that linked a telegram chat a morning summary
// of their today column. Purely read-only: it never mutates task state, and
// it is entirely separate from the opportunistic trash retention sweep.
type DigestService struct {
	bot      *tgbotapi.BotAPI
	users    repositories.UserRepository
	tasks    repositories.TaskRepository
	cron     *cron.Cron
	schedule string
}

// NewDigestService returns nil when no bot token is configured; the feature
// is entirely optional.
func NewDigestService(token, schedule string, users repositories.UserRepository, tasks repositories.TaskRepository) (*DigestService, error) {
	if token == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	if schedule == "" {
		schedule = "0 8 * * *"
	}
	return &DigestService{
		bot:      bot,
		users:    users,
		tasks:    tasks,
		cron:     cron.New(),
		schedule: schedule,
	}, nil
}

func (s *DigestService) Start() error {
	if s == nil {
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.SendAll(context.Background())
	}); err != nil {
		return fmt.Errorf("digest schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	log.Printf("[digest][start] schedule=%q bot=%s", s.schedule, s.bot.Self.UserName)
	return nil
}

func (s *DigestService) Stop() {
	if s == nil {
		return
	}
	s.cron.Stop()
}

func (s *DigestService) SendAll(ctx context.Context) {
	users, err := s.users.ListWithTelegram(ctx)
	if err != nil {
		log.Printf("[digest][err] list users: %v", err)
		return
	}
	for _, user := range users {
		if err := s.sendOne(ctx, user); err != nil {
			log.Printf("[digest][err] owner=%s chat=%d: %v", user.ID, user.TelegramChatID, err)
		}
	}
}

func (s *DigestService) sendOne(ctx context.Context, user models.User) error {
	today, err := s.tasks.ListByStatus(ctx, user.ID, models.StatusToday)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(user.TelegramChatID, buildDigest(today, time.Now()))
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = s.bot.Send(msg)
	return err
}

func buildDigest(today []models.Task, now time.Time) string {
	var b strings.Builder
	b.WriteString("<b>Today</b>\n")
	b.WriteString(now.Format("02.01.2006"))
	b.WriteString("\n\n")
	if len(today) == 0 {
		b.WriteString("Nothing planned for today.")
		return b.String()
	}
	for _, task := range today {
		mark := "▫️"
		if task.Priority == models.PriorityHigh {
			mark = "🔺"
		}
		b.WriteString(fmt.Sprintf("%s %s\n", mark, html.EscapeString(task.Title)))
	}
	return strings.TrimSpace(b.String())
}
