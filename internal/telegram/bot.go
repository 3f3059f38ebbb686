package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/MichaelPico/job-offer-analyzer/internal/crawl"
	"github.com/MichaelPico/job-offer-analyzer/internal/models"
)

//telegram caps a message at 4096 characters
const maxMessageLen = 4000

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts crawl results to a single chat.
type Notifier struct {
	api     sender
	chatID  int64
	//one message per second keeps the bot clear of 429s
	limiter *rate.Limiter
}

func NewNotifier(token string, chatID int64) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Notifier{
		api:     api,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil
}

var markdownReplacer = strings.NewReplacer(
	"\\", "\\\\", "_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

//inside a link target only ')' and '\' need escaping
var urlReplacer = strings.NewReplacer("\\", "\\\\", ")", "\\)")

func escapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

// FormatJob renders one record as a MarkdownV2 message.
func FormatJob(job models.JobRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔥 *%s*\n", escapeMarkdown(job.Title))
	fmt.Fprintf(&b, "🏢 %s\n", escapeMarkdown(orNA(job.Company)))
	fmt.Fprintf(&b, "📍 %s\n", escapeMarkdown(orNA(job.Location)))
	if !job.SalaryOffered.IsZero() {
		fmt.Fprintf(&b, "💰 %s\n", escapeMarkdown(job.SalaryOffered.String()))
	}
	if len(job.TechnologiesRequired) > 0 {
		fmt.Fprintf(&b, "🛠 %s\n", escapeMarkdown(strings.Join(job.TechnologiesRequired, ", ")))
	}
	if job.ExperienceYearsNeeded > 0 {
		fmt.Fprintf(&b, "⏳ %s\n", escapeMarkdown(fmt.Sprintf("%d+ years", job.ExperienceYearsNeeded)))
	}
	if !job.PostedTime.IsZero() {
		fmt.Fprintf(&b, "📅 %s\n", escapeMarkdown(job.PostedTime.Format("2006-01-02")))
	}
	fmt.Fprintf(&b, "🔖 Source: %s\n", escapeMarkdown(string(job.Source)))
	if job.URL != "" {
		fmt.Fprintf(&b, "🔗 [View Job](%s)\n", urlReplacer.Replace(job.URL))
	}
	return b.String()
}

// FormatSummary renders per-position counters of a crawl.
func FormatSummary(results []*crawl.Result) string {
	var b strings.Builder
	total, tokens := 0, 0
	for _, r := range results {
		total += r.Admitted
		tokens += r.TokenCost
	}
	fmt.Fprintf(&b, "📊 *Crawl finished*: %s new jobs, %s AI tokens\n",
		escapeMarkdown(fmt.Sprint(total)), escapeMarkdown(fmt.Sprint(tokens)))
	for _, r := range results {
		for _, p := range r.Positions {
			line := fmt.Sprintf("%s / %s: %d admitted, %d pages, stop %s", p.Board, p.Position, p.Admitted, p.Pages, p.StopReason)
			fmt.Fprintf(&b, "• %s\n", escapeMarkdown(line))
		}
	}
	return b.String()
}

func (n *Notifier) SendJob(job models.JobRecord) error {
	n.wait()
	msg := tgbotapi.NewMessage(n.chatID, FormatJob(job))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if job.URL != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", job.URL)),
		)
	}
	_, err := n.api.Send(msg)
	return err
}

func (n *Notifier) SendSummary(results []*crawl.Result) error {
	n.wait()
	text := FormatSummary(results)
	if len(text) > maxMessageLen {
		//cut on a line boundary so no escape sequence is split
		text = text[:strings.LastIndex(text[:maxMessageLen], "\n")+1] + escapeMarkdown("...")
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := n.api.Send(msg)
	return err
}

func (n *Notifier) SendError(err error) error {
	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("❌ Error: %v", err))
	_, sendErr := n.api.Send(msg)
	return sendErr
}

func (n *Notifier) wait() {
	if n.limiter != nil {
		_ = n.limiter.Wait(context.Background())
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
