// Package telegram runs the chat surface of the trainer: fetching the rolling
// plan, viewing the week's schedule, and revising plans conversationally.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-personal-trainer/internal/coach"
	"ai-personal-trainer/internal/config"
	"ai-personal-trainer/internal/llm"
	"ai-personal-trainer/internal/metrics"
	"ai-personal-trainer/internal/schedule"
	"ai-personal-trainer/internal/user"
)

// session is an in-progress conversational edit for one chat. Turns accumulate
// so the model sees the whole exchange on each revision.
type session struct {
	day   string // "today" or "tomorrow"
	turns []llm.ChatTurn
}

// Bot wraps the Telegram API and the coach.
type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          *config.Config
	users        *user.Repository
	coach        *coach.Coach
	schedule     *schedule.Repository
	metricsStore *metrics.Store

	mu       sync.Mutex
	sessions map[int64]*session
}

// NewBot initializes the Telegram Bot.
func NewBot(
	cfg *config.Config,
	users *user.Repository,
	aiCoach *coach.Coach,
	scheduleRepo *schedule.Repository,
	metricsStore *metrics.Store,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:          api,
		cfg:          cfg,
		users:        users,
		coach:        aiCoach,
		schedule:     scheduleRepo,
		metricsStore: metricsStore,
		sessions:     make(map[int64]*session),
	}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			if b.cfg.TelegramAllowUserID != 0 && update.Message.From.ID != b.cfg.TelegramAllowUserID {
				log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
				continue
			}
			go b.processMessage(update.Message)
		}
	}
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	switch {
	case msg.Text == "/start":
		b.send(msg.Chat.ID, "👋 I'm your AI trainer.\n\n"+
			"/plan – today's and tomorrow's workout\n"+
			"/schedule – this week's blocks\n"+
			"/today or /tomorrow – pick which day to edit\n"+
			"/done – finish editing\n\n"+
			"Anything else you type revises the selected day's plan.")
	case msg.Text == "/plan":
		b.handlePlanRequest(msg)
	case msg.Text == "/schedule":
		b.handleScheduleRequest(msg)
	case msg.Text == "/metrics":
		b.handleMetricsRequest(msg)
	case msg.Text == "/today" || msg.Text == "/tomorrow":
		day := strings.TrimPrefix(msg.Text, "/")
		b.resetSession(msg.Chat.ID, day)
		b.send(msg.Chat.ID, fmt.Sprintf("✏️ Editing *%s*'s plan. Tell me what to change.", day))
	case msg.Text == "/done":
		b.clearSession(msg.Chat.ID)
		b.send(msg.Chat.ID, "👍 Done editing.")
	default:
		b.handleEditRequest(msg)
	}
}

func (b *Bot) handlePlanRequest(msg *tgbotapi.Message) {
	sent := b.send(msg.Chat.ID, "🏋️ *Thinking...* \n(Checking your schedule and recovery)")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	u, err := b.users.First(ctx)
	if err != nil {
		b.edit(msg.Chat.ID, sent.MessageID, "❌ No user is set up yet. Connect via the web app first.")
		return
	}

	result, err := b.coach.GetOrGenerateRollingPlan(ctx, u.ID)
	if err != nil {
		log.Printf("Error generating rolling plan: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		b.edit(msg.Chat.ID, sent.MessageID, fmt.Sprintf("❌ *Error generating plan:*\n```\n%v\n```", safeErr))
		return
	}

	b.edit(msg.Chat.ID, sent.MessageID, formatDayPlan("Today", result.Today))
	b.send(msg.Chat.ID, formatDayPlan("Tomorrow", result.Tomorrow))
}

func (b *Bot) handleScheduleRequest(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	u, err := b.users.First(ctx)
	if err != nil {
		b.send(msg.Chat.ID, "❌ No user is set up yet.")
		return
	}

	now := time.Now()
	end := now.AddDate(0, 0, 6).Format("2006-01-02")
	blocks, err := b.schedule.ListRange(ctx, u.ID, now.Format("2006-01-02"), end)
	if err != nil {
		log.Printf("Error listing schedule: %v", err)
		b.send(msg.Chat.ID, "❌ Error fetching schedule.")
		return
	}
	if len(blocks) == 0 {
		b.send(msg.Chat.ID, "🗓 No blocks scheduled this week.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🗓 *This Week*\n\n")
	for _, blk := range blocks {
		check := ""
		if blk.IsCompleted {
			check = " ✅"
		}
		sb.WriteString(fmt.Sprintf("• *%s*: %s (%d min)%s\n", blk.Date, blk.Type, blk.DurationMinutes, check))
	}
	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) handleEditRequest(msg *tgbotapi.Message) {
	sess := b.appendTurn(msg.Chat.ID, msg.Text)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	u, err := b.users.First(ctx)
	if err != nil {
		b.send(msg.Chat.ID, "❌ No user is set up yet. Connect via the web app first.")
		return
	}

	result, err := b.coach.EditDayPlan(ctx, u.ID, sess.day, sess.turns)
	if err != nil {
		log.Printf("Error editing plan: %v", err)
		b.send(msg.Chat.ID, fmt.Sprintf("❌ %v", err))
		return
	}

	b.recordReply(msg.Chat.ID, result.Reply)
	label := "Today"
	if sess.day == "tomorrow" {
		label = "Tomorrow"
	}
	text := result.Reply
	if result.Plan != nil {
		text += "\n\n" + formatDayPlan(label, *result.Plan)
	}
	b.send(msg.Chat.ID, text)
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.send(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}

	health := metrics.GetSysHealth(b.cfg.DatabasePath)

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Database: %s\n", health.DBSize))

	b.send(msg.Chat.ID, sb.String())
}

// --- sessions ---

func (b *Bot) resetSession(chatID int64, day string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[chatID] = &session{day: day}
}

func (b *Bot) clearSession(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, chatID)
}

// appendTurn records the user's message in the chat's session, creating a
// session targeting today's plan if none exists, and returns a snapshot.
func (b *Bot) appendTurn(chatID int64, text string) session {
	b.mu.Lock()
	defer b.mu.Unlock()

	sess, ok := b.sessions[chatID]
	if !ok {
		sess = &session{day: "today"}
		b.sessions[chatID] = sess
	}
	sess.turns = append(sess.turns, llm.ChatTurn{Role: "user", Content: text})

	snapshot := session{day: sess.day, turns: make([]llm.ChatTurn, len(sess.turns))}
	copy(snapshot.turns, sess.turns)
	return snapshot
}

func (b *Bot) recordReply(chatID int64, reply string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sess, ok := b.sessions[chatID]; ok {
		sess.turns = append(sess.turns, llm.ChatTurn{Role: "assistant", Content: reply})
	}
}

// --- telegram helpers ---

func (b *Bot) send(chatID int64, text string) tgbotapi.Message {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Failed to send message: %v", err)
	}
	return sent
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "Markdown"
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Failed to edit message: %v", err)
	}
}

func formatDayPlan(label string, plan coach.DayPlan) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💪 *%s* — %s (%s)\n", label, plan.BlockType, plan.Date))
	if plan.Intensity != "" {
		sb.WriteString(fmt.Sprintf("*Intensity:* %s\n", plan.Intensity))
	}
	if plan.Focus != "" {
		sb.WriteString(fmt.Sprintf("*Focus:* %s\n", plan.Focus))
	}
	if plan.Routine != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", plan.Routine))
	}
	if plan.Notes != "" {
		sb.WriteString(fmt.Sprintf("\n_%s_\n", plan.Notes))
	}
	return sb.String()
}
