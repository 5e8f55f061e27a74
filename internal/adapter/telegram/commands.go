package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

type CommandHandler func(ctx context.Context, msg *tgbotapi.Message)

var commandOrder = []string{"start", "new", "match", "reports", "language", "help"}

// registerCommands registers all bot commands
func (b *Bot) registerCommands() {
	b.commands = map[string]CommandHandler{
		"start":    b.commandStart,
		"help":     b.commandHelp,
		"language": b.commandLanguage,
		"reports":  b.commandReports,
		"new":      b.commandNew,
		"match":    b.commandMatch,
	}

	// Default descriptions in English, then one localized set per language
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(botCommands(b.i18n, domain.LangEnglish)...)); err != nil {
		b.log.Error().Err(err).Msg("Failed to set bot commands")
	}
	for _, lang := range domain.Languages {
		cfg := tgbotapi.NewSetMyCommandsWithScopeAndLanguage(
			tgbotapi.NewBotCommandScopeDefault(),
			string(lang),
			botCommands(b.i18n, lang)...,
		)
		if _, err := b.api.Request(cfg); err != nil {
			b.log.Error().Err(err).Str("lang", string(lang)).Msg("Failed to set localized bot commands")
		}
	}
}

func botCommands(tr domain.I18nPort, lang domain.Language) []tgbotapi.BotCommand {
	commands := make([]tgbotapi.BotCommand, 0, len(commandOrder))
	for _, name := range commandOrder {
		commands = append(commands, tgbotapi.BotCommand{
			Command:     name,
			Description: tr.Get(lang, "command."+name),
		})
	}
	return commands
}

func (b *Bot) commandStart(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	lang := b.service.GetUserLanguage(ctx, userID)

	if err := b.service.HandleStart(ctx, userID, lang); err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to handle start")
		b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "error.generic"))
		return
	}

	b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "welcome.message"))
	b.sendSurahSelection(msg.Chat.ID, lang, 0)
}

func (b *Bot) commandHelp(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	lang := b.service.GetUserLanguage(ctx, userID)
	b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "help.message"))
}

func (b *Bot) commandLanguage(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	lang := b.service.GetUserLanguage(ctx, userID)
	b.sendLanguageSelection(msg.Chat.ID, lang)
}

func (b *Bot) commandNew(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	lang := b.service.GetUserLanguage(ctx, userID)

	if err := b.service.HandleStart(ctx, userID, lang); err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("Failed to handle start")
		b.sendMessage(msg.Chat.ID, b.i18n.Get(lang, "error.generic"))
		return
	}

	b.sendSurahSelection(msg.Chat.ID, lang, 0)
}

func (b *Bot) commandMatch(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	lang := b.service.GetUserLanguage(ctx, userID)
	b.startMatchMode(ctx, msg.Chat.ID, userID, lang)
}

func (b *Bot) commandReports(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	lang := b.service.GetUserLanguage(ctx, userID)
	b.sendReportsList(ctx, msg.Chat.ID, userID, lang)
}
