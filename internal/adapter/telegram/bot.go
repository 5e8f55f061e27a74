package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/escalopa/quran-recite-grader/internal/application"
	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/observability/logging"
)

// maxRangeInput fits the longest range, "286-286"
const maxRangeInput = 7

type Bot struct {
	api      *tgbotapi.BotAPI
	service  *application.BotService
	i18n     domain.I18nPort
	commands map[string]CommandHandler
	cancel   context.CancelFunc
	log      zerolog.Logger

	// sampleRate is the PCM rate voice messages are converted to
	sampleRate int
}

func NewBot(token string, service *application.BotService, i18n domain.I18nPort, sampleRate int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	bot := &Bot{
		api:      api,
		service:  service,
		i18n:     i18n,
		commands: make(map[string]CommandHandler),
		log:      logging.WithComponent("telegram"),

		sampleRate: sampleRate,
	}
	if bot.sampleRate <= 0 {
		bot.sampleRate = defaultSampleRate
	}

	bot.registerCommands()

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.log.Info().Str("account", b.api.Self.UserName).Msg("Bot authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.api.StopReceivingUpdates()
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	userID := b.getUserID(update)
	if userID == "" {
		return
	}

	lang := b.service.GetUserLanguage(ctx, userID)

	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message, lang)
	case update.Message != nil && update.Message.Voice != nil:
		b.handleVoice(ctx, update.Message, lang)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery, lang)
	case update.Message != nil && update.Message.Text != "":
		b.handleText(ctx, update.Message, lang)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, lang domain.Language) {
	handler, exists := b.commands[msg.Command()]
	if !exists {
		b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "error.unknown_command"))
		return
	}

	handler(ctx, msg)
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, lang domain.Language) {
	if callback.Message == nil {
		return
	}

	userID := strconv.FormatInt(callback.From.ID, 10)
	msg := callback.Message
	data := callback.Data

	// Answer callback to remove loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Debug().Err(err).Msg("Failed to answer callback")
	}

	if code, ok := strings.CutPrefix(data, "lang:"); ok {
		newLang, ok := domain.ParseLanguage(code)
		if !ok {
			return
		}
		if err := b.service.HandleStart(ctx, userID, newLang); err != nil {
			b.log.Error().Err(err).Str("user", userID).Msg("Failed to set language")
			return
		}
		b.sendMessage(msg.Chat.ID, b.i18n.Get(newLang, "language.changed"))
		b.sendSurahSelection(msg.Chat.ID, newLang, 0)
		return
	}

	if raw, ok := strings.CutPrefix(data, "spage:"); ok {
		page, _ := strconv.Atoi(raw)
		b.editMessageWithKeyboard(msg, b.i18n.Get(lang, "surah.select"), b.getSurahKeyboard(lang, page))
		return
	}

	if raw, ok := strings.CutPrefix(data, "surah:"); ok {
		b.handleSurahCallback(ctx, callback, userID, lang, raw)
		return
	}

	if key, ok := strings.CutPrefix(data, "digit:"); ok {
		b.handleDigitInput(ctx, msg, userID, lang, key)
		return
	}

	if id, ok := strings.CutPrefix(data, "viewrep:"); ok {
		b.handleViewReport(ctx, msg, userID, lang, id)
		return
	}

	if raw, ok := strings.CutPrefix(data, "reppage:"); ok {
		page, _ := strconv.Atoi(raw)
		b.editReportsList(ctx, msg, userID, lang, page)
		return
	}

	switch data {
	case "clear":
		b.handleClearDigit(ctx, msg, userID, lang)
	case "done":
		b.handleRangeDone(ctx, msg, userID, lang)
	case "newrecord":
		if err := b.service.HandleStart(ctx, userID, lang); err != nil {
			b.log.Error().Err(err).Str("user", userID).Msg("Failed to reset session")
			return
		}
		b.sendSurahSelection(msg.Chat.ID, lang, 0)
	case "retry":
		b.sendRecitalPrompt(ctx, msg.Chat.ID, userID, lang)
	case "match":
		b.startMatchMode(ctx, msg.Chat.ID, userID, lang)
	case "backtoreps":
		b.editReportsList(ctx, msg, userID, lang, 0)
	}
}

func (b *Bot) handleSurahCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, userID string, lang domain.Language, raw string) {
	surahNum, err := strconv.Atoi(raw)
	if err != nil {
		b.answerCallbackAlert(callback.ID, b.i18n.Get(lang, "error.invalid_input"))
		return
	}

	surah, err := b.service.HandleSurahSelection(ctx, userID, surahNum)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Int("surah", surahNum).Msg("Failed to select surah")
		b.answerCallbackAlert(callback.ID, b.i18n.Get(lang, "error.generic"))
		return
	}

	b.editMessageWithKeyboard(callback.Message, b.rangePromptText(lang, surah, ""), b.getRangeKeyboard(lang))
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message, lang domain.Language) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	state, err := b.service.GetCurrentState(ctx, userID)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to get state")
		b.sendMessage(chatID, b.i18n.Get(lang, "error.generic"))
		return
	}

	if state != domain.StateEnterRange {
		b.sendMessage(chatID, b.i18n.Get(lang, "help.message"))
		return
	}

	if _, err := b.service.HandleRangeInput(ctx, userID, msg.Text); err != nil {
		b.sendMessage(chatID, b.rangeErrorText(ctx, userID, lang, err))
		return
	}

	b.sendRecitalPrompt(ctx, chatID, userID, lang)
}

func (b *Bot) handleVoice(ctx context.Context, msg *tgbotapi.Message, lang domain.Language) {
	userID := strconv.FormatInt(msg.From.ID, 10)

	state, err := b.service.GetCurrentState(ctx, userID)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to get state")
		b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "error.generic"))
		return
	}

	switch state {
	case domain.StateWaitRecital:
		b.handleRecitalVoice(ctx, msg, userID, lang)
	case domain.StateWaitMatch:
		b.handleMatchVoice(ctx, msg, userID, lang)
	default:
		b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "recital.unexpected"))
	}
}

func (b *Bot) handleRecitalVoice(ctx context.Context, msg *tgbotapi.Message, userID string, lang domain.Language) {
	chatID := msg.Chat.ID
	b.sendMessage(chatID, b.i18n.Get(lang, "recital.processing"))

	audio, err := b.processVoiceMessage(ctx, msg.Voice.FileID)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to process voice message")
		b.sendMessage(chatID, b.i18n.Get(lang, "recital.failed"))
		return
	}

	submission, err := b.service.HandleRecital(ctx, userID, audio)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to grade recital")
		b.sendMessage(chatID, b.i18n.Get(lang, "recital.failed"))
		return
	}

	reply := tgbotapi.NewMessage(chatID, formatReport(b.i18n, lang, submission))
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = b.afterReportKeyboard(lang)
	b.send(reply)
}

func (b *Bot) handleMatchVoice(ctx context.Context, msg *tgbotapi.Message, userID string, lang domain.Language) {
	chatID := msg.Chat.ID
	b.sendMessage(chatID, b.i18n.Get(lang, "match.processing"))

	audio, err := b.processVoiceMessage(ctx, msg.Voice.FileID)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to process voice message")
		b.sendMessage(chatID, b.i18n.Get(lang, "recital.failed"))
		return
	}

	results, err := b.service.HandleMatchRecital(ctx, userID, audio)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to match recital")
		b.sendMessage(chatID, b.i18n.Get(lang, "recital.failed"))
		return
	}

	b.sendMessage(chatID, formatMatches(b.i18n, lang, results))
}

func (b *Bot) handleDigitInput(ctx context.Context, msg *tgbotapi.Message, userID string, lang domain.Language, key string) {
	input := b.service.GetRangeInput(ctx, userID)

	if len(input) < maxRangeInput && !(key == "-" && (input == "" || strings.Contains(input, "-"))) {
		input += key
		if err := b.service.SetRangeInput(ctx, userID, input); err != nil {
			b.log.Error().Err(err).Str("user", userID).Msg("Failed to store range input")
			return
		}
	}

	b.refreshRangePrompt(ctx, msg, userID, lang, input, "")
}

func (b *Bot) handleClearDigit(ctx context.Context, msg *tgbotapi.Message, userID string, lang domain.Language) {
	input := b.service.GetRangeInput(ctx, userID)

	if len(input) > 0 {
		input = input[:len(input)-1]
		if err := b.service.SetRangeInput(ctx, userID, input); err != nil {
			b.log.Error().Err(err).Str("user", userID).Msg("Failed to store range input")
			return
		}
	}

	b.refreshRangePrompt(ctx, msg, userID, lang, input, "")
}

func (b *Bot) handleRangeDone(ctx context.Context, msg *tgbotapi.Message, userID string, lang domain.Language) {
	input := b.service.GetRangeInput(ctx, userID)

	if _, err := b.service.HandleRangeInput(ctx, userID, input); err != nil {
		b.refreshRangePrompt(ctx, msg, userID, lang, input, b.rangeErrorText(ctx, userID, lang, err))
		return
	}

	b.deleteMessage(msg)
	b.sendRecitalPrompt(ctx, msg.Chat.ID, userID, lang)
}

// refreshRangePrompt redraws the keypad message with the current input and an optional warning
func (b *Bot) refreshRangePrompt(ctx context.Context, msg *tgbotapi.Message, userID string, lang domain.Language, input, warning string) {
	surahNum, err := b.service.GetSelectedSurah(ctx, userID)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to get selected surah")
		return
	}
	surah, err := domain.GetSurah(surahNum)
	if err != nil {
		return
	}

	text := b.rangePromptText(lang, surah, input)
	if warning != "" {
		text += "\n\n" + warning
	}
	b.editMessageWithKeyboard(msg, text, b.getRangeKeyboard(lang))
}

func (b *Bot) rangePromptText(lang domain.Language, surah domain.Surah, input string) string {
	text := b.i18n.Get(lang, "range.prompt", b.i18n.GetSurahName(lang, surah.Number), surah.Ayahs)
	if input != "" {
		text += "\n\n" + b.i18n.Get(lang, "range.current", input)
	}
	return text
}

func (b *Bot) rangeErrorText(ctx context.Context, userID string, lang domain.Language, err error) string {
	if !domain.IsAssignmentError(err) {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to handle range input")
		return b.i18n.Get(lang, "error.generic")
	}

	surahNum, serr := b.service.GetSelectedSurah(ctx, userID)
	surah, gerr := domain.GetSurah(surahNum)
	if serr != nil || gerr != nil {
		return b.i18n.Get(lang, "error.invalid_input")
	}
	return b.i18n.Get(lang, "range.invalid", b.i18n.GetSurahName(lang, surah.Number), surah.Ayahs)
}

func (b *Bot) sendRecitalPrompt(ctx context.Context, chatID int64, userID string, lang domain.Language) {
	a, err := b.service.GetAssignment(ctx, userID)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to get assignment")
		b.sendMessage(chatID, b.i18n.Get(lang, "recital.unexpected"))
		return
	}
	b.sendMessage(chatID, b.i18n.Get(lang, "recital.prompt", b.i18n.GetSurahName(lang, a.Surah), formatAyahSpan(a)))
}

func (b *Bot) startMatchMode(ctx context.Context, chatID int64, userID string, lang domain.Language) {
	if err := b.service.StartMatchMode(ctx, userID); err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to start match mode")
		b.sendMessage(chatID, b.i18n.Get(lang, "error.generic"))
		return
	}
	b.sendMessage(chatID, b.i18n.Get(lang, "match.prompt"))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Error().Err(err).Msg("Failed to send message")
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(msg)
}

func (b *Bot) deleteMessage(msg *tgbotapi.Message) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.log.Debug().Err(err).Msg("Failed to delete message")
	}
}

func (b *Bot) sendLanguageSelection(chatID int64, currentLang domain.Language) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇬🇧 English", "lang:en"),
			tgbotapi.NewInlineKeyboardButtonData("🇸🇦 العربية", "lang:ar"),
			tgbotapi.NewInlineKeyboardButtonData("🇷🇺 Русский", "lang:ru"),
		),
	)

	msg := tgbotapi.NewMessage(chatID, b.i18n.Get(currentLang, "language.select"))
	msg.ReplyMarkup = keyboard
	b.send(msg)
}

func (b *Bot) sendSurahSelection(chatID int64, lang domain.Language, page int) {
	msg := tgbotapi.NewMessage(chatID, b.i18n.Get(lang, "surah.select"))
	msg.ReplyMarkup = b.getSurahKeyboard(lang, page)
	b.send(msg)
}

func (b *Bot) getSurahKeyboard(lang domain.Language, page int) tgbotapi.InlineKeyboardMarkup {
	return surahKeyboard(b.i18n, lang, b.service.GetAvailableSurahs(), page)
}

func (b *Bot) getRangeKeyboard(lang domain.Language) tgbotapi.InlineKeyboardMarkup {
	return rangeKeyboard(b.i18n, lang)
}

func (b *Bot) afterReportKeyboard(lang domain.Language) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.i18n.Get(lang, "button.retry"), "retry"),
			tgbotapi.NewInlineKeyboardButtonData(b.i18n.Get(lang, "button.new"), "newrecord"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.i18n.Get(lang, "button.reports"), "backtoreps"),
		),
	)
}

func (b *Bot) editMessageWithKeyboard(msg *tgbotapi.Message, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = &keyboard
	b.send(edit)
}

func (b *Bot) answerCallbackAlert(callbackID, text string) {
	callback := tgbotapi.NewCallbackWithAlert(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		b.log.Error().Err(err).Msg("Failed to answer callback")
	}
}

func (b *Bot) getUserID(update tgbotapi.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return strconv.FormatInt(update.Message.From.ID, 10)
	}
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return strconv.FormatInt(update.CallbackQuery.From.ID, 10)
	}
	return ""
}
