package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/escalopa/quran-recite-grader/internal/adapter/i18n"
	"github.com/escalopa/quran-recite-grader/internal/domain"
)

const surahsPerPage = 10

// surahKeyboard lists surahs two per row with page navigation
func surahKeyboard(tr domain.I18nPort, lang domain.Language, surahs []domain.Surah, page int) tgbotapi.InlineKeyboardMarkup {
	totalPages := max((len(surahs)+surahsPerPage-1)/surahsPerPage, 1)
	page = clampPage(page, totalPages)

	start := page * surahsPerPage
	end := min(start+surahsPerPage, len(surahs))

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := start; i < end; i += 2 {
		row := []tgbotapi.InlineKeyboardButton{surahButton(tr, lang, surahs[i])}
		if i+1 < end {
			row = append(row, surahButton(tr, lang, surahs[i+1]))
		}
		rows = append(rows, row)
	}

	if nav := pageNavigation(tr, lang, "spage", page, totalPages); nav != nil {
		rows = append(rows, nav)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func surahButton(tr domain.I18nPort, lang domain.Language, surah domain.Surah) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(
		i18n.FormatSurahButton(lang, tr, surah.Number),
		fmt.Sprintf("surah:%d", surah.Number),
	)
}

// rangeKeyboard is a phone-style keypad with a dash for ranges
func rangeKeyboard(tr domain.I18nPort, lang domain.Language) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("1", "digit:1"),
			tgbotapi.NewInlineKeyboardButtonData("2", "digit:2"),
			tgbotapi.NewInlineKeyboardButtonData("3", "digit:3"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("4", "digit:4"),
			tgbotapi.NewInlineKeyboardButtonData("5", "digit:5"),
			tgbotapi.NewInlineKeyboardButtonData("6", "digit:6"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("7", "digit:7"),
			tgbotapi.NewInlineKeyboardButtonData("8", "digit:8"),
			tgbotapi.NewInlineKeyboardButtonData("9", "digit:9"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(tr.Get(lang, "button.clear"), "clear"),
			tgbotapi.NewInlineKeyboardButtonData("0", "digit:0"),
			tgbotapi.NewInlineKeyboardButtonData("-", "digit:-"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(tr.Get(lang, "button.done"), "done"),
		),
	)
}

// pageNavigation returns nil when everything fits on one page
func pageNavigation(tr domain.I18nPort, lang domain.Language, prefix string, page, totalPages int) []tgbotapi.InlineKeyboardButton {
	if totalPages <= 1 {
		return nil
	}

	var row []tgbotapi.InlineKeyboardButton
	if page > 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			tr.Get(lang, "button.previous"),
			fmt.Sprintf("%s:%d", prefix, page-1),
		))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData(
		fmt.Sprintf("%d/%d", page+1, totalPages),
		"noop",
	))
	if page < totalPages-1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			tr.Get(lang, "button.next"),
			fmt.Sprintf("%s:%d", prefix, page+1),
		))
	}
	return row
}

func clampPage(page, totalPages int) int {
	if page >= totalPages {
		page = totalPages - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}
