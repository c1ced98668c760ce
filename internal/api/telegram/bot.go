package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "multicap-dx/internal/application"
	"multicap-dx/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот считывателя Multicap Dx.

📋 Команды:
/capture — снять кадр с картриджа
/extract — анализ ROI по умолчанию
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Внесите образец во все камеры
2️⃣ Отправьте /capture и проверьте кадр
3️⃣ Отправьте /extract — бот пришлёт результат по HIV, HBV, HCV и CSV

💡 ROI берутся в положении по умолчанию. Для ручной подстройки используйте веб-интерфейс.`

	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgSendCommand    = "📋 Отправьте /capture или /extract."
	msgCapturing      = "⏳ Снимаю кадр..."
	msgCaptureFirst   = "📸 Сначала снимите кадр: /capture"
	msgCaptureError   = "⚠️ Не удалось получить кадр со считывателя."
	msgExtractError   = "⚠️ Не удалось выполнить анализ."
	msgSynthetic      = "⚠️ Считыватель недоступен, показан синтетический кадр (шум). Результат анализа недостоверен."
)

// botAPI часть tgbotapi.BotAPI, которой пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота считывателя
type Bot struct {
	api         botAPI
	capture     *app.CaptureService
	extraction  *app.ExtractionService
	allowedChat int64
}

// NewBot создаёт нового бота. allowedChat == 0 разрешает любые чаты.
func NewBot(token string, allowedChat int64, capture *app.CaptureService, extraction *app.ExtractionService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return newBot(api, allowedChat, capture, extraction), nil
}

func newBot(api botAPI, allowedChat int64, capture *app.CaptureService, extraction *app.ExtractionService) *Bot {
	return &Bot{
		api:         api,
		capture:     capture,
		extraction:  extraction,
		allowedChat: allowedChat,
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if b.allowedChat != 0 && msg.Chat.ID != b.allowedChat {
		log.Printf("Ignoring message from chat %d", msg.Chat.ID)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendCommand)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "capture":
		b.handleCapture(ctx, msg.Chat.ID)

	case "extract":
		b.handleExtract(ctx, msg.Chat.ID)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handleCapture снимает кадр и отправляет его фотографией
func (b *Bot) handleCapture(ctx context.Context, chatID int64) {
	b.sendMessage(chatID, msgCapturing)

	out, err := b.capture.Capture(ctx)
	if err != nil {
		log.Printf("Error capturing frame: %v", err)
		b.sendMessage(chatID, msgCaptureError)
		return
	}

	frame := out.Capture.Frame
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "frame.png", Bytes: out.PNG})
	photo.Caption = fmt.Sprintf("Кадр %s (%s)", shortID(frame.ID), frame.Source)
	if _, err := b.api.Send(photo); err != nil {
		log.Printf("Error sending photo: %v", err)
	}
	if frame.IsSynthetic() {
		b.sendMessage(chatID, msgSynthetic)
	}
}

// handleExtract анализирует ROI по умолчанию и отправляет итог и CSV
func (b *Bot) handleExtract(ctx context.Context, chatID int64) {
	result, err := b.extraction.Extract(ctx, entity.DefaultROIs())
	if errors.Is(err, entity.ErrNoFrame) {
		b.sendMessage(chatID, msgCaptureFirst)
		return
	}
	if err != nil {
		log.Printf("Error extracting ROIs: %v", err)
		b.sendMessage(chatID, msgExtractError)
		return
	}

	b.sendMessage(chatID, FormatResult(result))

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(result.CSVPath))
	if _, err := b.api.Send(doc); err != nil {
		log.Printf("Error sending csv: %v", err)
	}
}

// FormatResult текст итога анализа для чата
func FormatResult(result *entity.AnalysisResult) string {
	var sb strings.Builder

	control := "✅ в норме"
	if !result.ControlOK {
		control = "❌ нет сигнала"
	}
	fmt.Fprintf(&sb, "Внутренний контроль: %s\n", control)

	for _, r := range result.Results {
		mark := "➖"
		if r.Status == entity.StatusPositive {
			mark = "➕"
		}
		fmt.Fprintf(&sb, "%s %s: %s (score=%.2f, cutoff=%g)\n", mark, r.Analyte, r.Status, r.Score, r.Cutoff)
	}

	if result.FrameSource == entity.SourceSynthetic {
		sb.WriteString(msgSynthetic + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
