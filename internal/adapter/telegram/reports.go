package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/scoring"
)

const (
	reportsPerPage     = 5
	reportsFetchLimit  = 50
	maxReportVerses    = 15
	maxVerseDiffs      = 3
	maxTranscriptRunes = 300
)

// handleViewReport shows a stored report in place of the reports list
func (b *Bot) handleViewReport(ctx context.Context, msg *tgbotapi.Message, userID string, lang domain.Language, submissionID string) {
	submission, err := b.service.GetSubmission(ctx, userID, submissionID)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Str("submission", submissionID).Msg("Failed to get submission")
		b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "report.not_found"))
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.i18n.Get(lang, "button.back"), "backtoreps"),
		),
	)
	b.editMessageWithKeyboard(msg, formatReport(b.i18n, lang, submission), keyboard)
}

// sendReportsList sends the first page of the user's graded recitations
func (b *Bot) sendReportsList(ctx context.Context, chatID int64, userID string, lang domain.Language) {
	submissions, err := b.service.ListSubmissions(ctx, userID, reportsFetchLimit)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to list submissions")
		b.sendMessage(chatID, b.i18n.Get(lang, "error.generic"))
		return
	}

	if len(submissions) == 0 {
		b.sendMessage(chatID, b.i18n.Get(lang, "reports.empty"))
		return
	}

	text, keyboard := formatReportsList(b.i18n, lang, submissions, 0)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	b.send(msg)
}

// editReportsList replaces msg with a page of the user's graded recitations
func (b *Bot) editReportsList(ctx context.Context, msg *tgbotapi.Message, userID string, lang domain.Language, page int) {
	submissions, err := b.service.ListSubmissions(ctx, userID, reportsFetchLimit)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to list submissions")
		return
	}

	if len(submissions) == 0 {
		b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "reports.empty"))
		return
	}

	text, keyboard := formatReportsList(b.i18n, lang, submissions, page)
	b.editMessageWithKeyboard(msg, text, keyboard)
}

// formatReportsList renders one page of submissions as buttons
func formatReportsList(tr domain.I18nPort, lang domain.Language, submissions []*domain.Submission, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	totalPages := max((len(submissions)+reportsPerPage-1)/reportsPerPage, 1)
	page = clampPage(page, totalPages)

	start := page * reportsPerPage
	end := min(start+reportsPerPage, len(submissions))

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, sub := range submissions[start:end] {
		label := fmt.Sprintf("%s %s %s · %s",
			statusEmoji(sub),
			tr.GetSurahName(lang, sub.Assignment.Surah),
			formatAyahSpan(sub.Assignment),
			sub.CreatedAt.Format("2006-01-02 15:04"),
		)
		if sub.Status == domain.StatusGraded {
			label = fmt.Sprintf("%s · %.0f%%", label, sub.Accuracy*100)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "viewrep:"+sub.ID),
		))
	}

	if nav := pageNavigation(tr, lang, "reppage", page, totalPages); nav != nil {
		rows = append(rows, nav)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(tr.Get(lang, "button.new"), "newrecord"),
	))

	return tr.Get(lang, "reports.title", len(submissions)), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// formatReport renders a submission as an HTML message
func formatReport(tr domain.I18nPort, lang domain.Language, sub *domain.Submission) string {
	var text strings.Builder

	text.WriteString(tr.Get(lang, "report.title", tr.GetSurahName(lang, sub.Assignment.Surah), formatAyahSpan(sub.Assignment)))
	text.WriteString("\n")

	report := sub.Report
	if sub.Status == domain.StatusFailed || report == nil {
		text.WriteString("\n" + tr.Get(lang, "recital.failed"))
		return text.String()
	}

	text.WriteString(tr.Get(lang, "report.accuracy", report.AverageAccuracy*100))
	text.WriteString("\n")
	text.WriteString(overallFeedback(tr, lang, report))
	text.WriteString("\n\n")

	for i, entry := range report.Verses {
		if i == maxReportVerses {
			text.WriteString(tr.Get(lang, "report.more_differences", len(report.Verses)-maxReportVerses))
			text.WriteString("\n")
			break
		}
		writeVerse(&text, tr, lang, entry)
	}

	if sub.Transcript != "" {
		text.WriteString("\n")
		text.WriteString(tr.Get(lang, "report.transcript", html.EscapeString(truncateRunes(sub.Transcript, maxTranscriptRunes))))
	}

	return text.String()
}

func writeVerse(text *strings.Builder, tr domain.I18nPort, lang domain.Language, entry domain.VerseFeedbackEntry) {
	key := labelKey(entry)
	if entry.IsMissing {
		text.WriteString(tr.Get(lang, "report.verse_missing", labelEmoji(key), entry.Ayah, tr.Get(lang, key)))
		text.WriteString("\n")
		return
	}

	text.WriteString(tr.Get(lang, "report.verse", labelEmoji(key), entry.Ayah, tr.Get(lang, key), entry.Accuracy*100))
	text.WriteString("\n")

	for i, diff := range entry.Differences {
		if i == maxVerseDiffs {
			text.WriteString(tr.Get(lang, "report.more_differences", len(entry.Differences)-maxVerseDiffs))
			text.WriteString("\n")
			break
		}
		text.WriteString(tr.Get(lang, "report.difference", diff.Position, displayWord(diff.Expected), displayWord(diff.Transcribed)))
		text.WriteString("\n")
	}
}

// formatMatches renders matcher results as an HTML message
func formatMatches(tr domain.I18nPort, lang domain.Language, results []domain.MatchResult) string {
	matched := 0
	var text strings.Builder
	text.WriteString(tr.Get(lang, "match.title"))
	text.WriteString("\n\n")

	for _, r := range results {
		if r.Match == nil {
			text.WriteString(tr.Get(lang, "match.unmatched", html.EscapeString(truncateRunes(r.Segment, 60))))
			text.WriteString("\n")
			continue
		}
		matched++
		key := "match.outside"
		if r.InAssignment {
			key = "match.found"
		}
		ref := r.Match.Reference
		text.WriteString(tr.Get(lang, key, tr.GetSurahName(lang, ref.Surah), ref.Surah, ref.Ayah, r.Score*100))
		text.WriteString("\n")
	}

	if matched == 0 {
		return tr.Get(lang, "match.none")
	}
	return text.String()
}

func overallFeedback(tr domain.I18nPort, lang domain.Language, report *domain.VerseFeedbackReport) string {
	key := "overall.practice"
	switch {
	case report.AverageAccuracy >= scoring.ExcellentThreshold:
		key = "overall.excellent"
	case report.AverageAccuracy >= scoring.VeryGoodThreshold:
		key = "overall.very_good"
	case report.AverageAccuracy >= scoring.GoodThreshold:
		key = "overall.good"
	}
	return tr.Get(lang, key, report.ExcellentCount, report.GoodCount, len(report.Verses))
}

func labelKey(entry domain.VerseFeedbackEntry) string {
	if entry.IsMissing {
		return "label.missing"
	}
	switch scoring.Label(entry.Accuracy) {
	case scoring.LabelExcellent:
		return "label.excellent"
	case scoring.LabelVeryGood:
		return "label.very_good"
	case scoring.LabelGood:
		return "label.good"
	default:
		return "label.practice"
	}
}

func labelEmoji(key string) string {
	switch key {
	case "label.excellent":
		return "✅"
	case "label.very_good":
		return "🟢"
	case "label.good":
		return "🟡"
	case "label.practice":
		return "🟠"
	default:
		return "⚪"
	}
}

func statusEmoji(sub *domain.Submission) string {
	if sub.Status == domain.StatusFailed {
		return "❌"
	}
	return labelEmoji(labelKey(domain.VerseFeedbackEntry{Accuracy: sub.Accuracy}))
}

func displayWord(word string) string {
	if word == domain.MissingWord {
		return "—"
	}
	return html.EscapeString(word)
}

// formatAyahSpan renders the ayah part of a range, "5" or "1-7"
func formatAyahSpan(a domain.AssignmentRange) string {
	if a.StartAyah == a.EndAyah {
		return fmt.Sprintf("%d", a.StartAyah)
	}
	return fmt.Sprintf("%d-%d", a.StartAyah, a.EndAyah)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
