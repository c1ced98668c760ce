package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	app "multicap-dx/internal/application"
	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/infrastructure/serial"
	"multicap-dx/internal/infrastructure/storage"
	"multicap-dx/internal/infrastructure/vision"
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	updates chan tgbotapi.Update
	stopped bool
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, c)
	return tgbotapi.Message{}, nil
}

func (a *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return a.updates
}

func (a *fakeAPI) StopReceivingUpdates() {
	a.stopped = true
}

func (a *fakeAPI) texts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, c := range a.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

type brokenReader struct{}

func (brokenReader) Read(ctx context.Context) (*entity.Frame, error) {
	return nil, errors.New("not enough data from MCU")
}

func newTestBot(t *testing.T, allowedChat int64) (*Bot, *fakeAPI) {
	t.Helper()
	store := storage.NewMemoryFrameStore()
	capture := app.NewCaptureService(brokenReader{}, serial.NewNoiseReader(5), vision.NewGiftRotator(), vision.NewPNGRenderer(), store, nil)
	extraction := app.NewExtractionService(store, storage.NewCSVArtifactStore(t.TempDir()), nil, entity.DefaultCutoffs())

	api := &fakeAPI{updates: make(chan tgbotapi.Update, 4)}
	return newBot(api, allowedChat, capture, extraction), api
}

func command(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}
}

func TestBot_ExtractBeforeCapture(t *testing.T) {
	bot, api := newTestBot(t, 0)

	bot.handleMessage(context.Background(), command(1, "/extract"))
	require.Equal(t, []string{msgCaptureFirst}, api.texts())
}

func TestBot_CaptureThenExtract(t *testing.T) {
	bot, api := newTestBot(t, 0)
	ctx := context.Background()

	bot.handleMessage(ctx, command(1, "/capture"))
	var photo *tgbotapi.PhotoConfig
	for _, c := range api.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			photo = &p
		}
	}
	require.NotNil(t, photo)
	require.Contains(t, photo.Caption, string(entity.SourceSynthetic))
	require.Contains(t, api.texts(), msgSynthetic)

	api.sent = nil
	bot.handleMessage(ctx, command(1, "/extract"))
	texts := api.texts()
	require.Len(t, texts, 1)
	require.Contains(t, texts[0], "HIV")

	last := api.sent[len(api.sent)-1]
	doc, ok := last.(tgbotapi.DocumentConfig)
	require.True(t, ok)
	require.True(t, strings.HasSuffix(string(doc.File.(tgbotapi.FilePath)), "_ROI_NORMALIZED.csv"))
}

func TestBot_IgnoresForeignChats(t *testing.T) {
	bot, api := newTestBot(t, 42)

	bot.handleMessage(context.Background(), command(7, "/start"))
	require.Empty(t, api.sent)

	bot.handleMessage(context.Background(), command(42, "/start"))
	require.Equal(t, []string{msgStart}, api.texts())
}

func TestBot_UnknownCommandAndText(t *testing.T) {
	bot, api := newTestBot(t, 0)

	bot.handleMessage(context.Background(), command(1, "/foo"))
	bot.handleMessage(context.Background(), &tgbotapi.Message{Text: "hi", Chat: &tgbotapi.Chat{ID: 1}})
	require.Equal(t, []string{msgUnknownCommand, msgSendCommand}, api.texts())
}

func TestBot_RunStopsOnContext(t *testing.T) {
	bot, api := newTestBot(t, 0)
	ctx, cancel := context.WithCancel(context.Background())

	api.updates <- tgbotapi.Update{Message: command(1, "/help")}
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	require.Eventually(t, func() bool { return len(api.texts()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	require.True(t, api.stopped)
}

func TestFormatResult(t *testing.T) {
	result := &entity.AnalysisResult{
		ControlOK:   false,
		FrameSource: entity.SourceSerial,
		Results: [3]entity.AnalyteResult{
			{Analyte: entity.AnalyteHIV, Status: entity.StatusPositive, Score: 120.5, Cutoff: 97.5},
			{Analyte: entity.AnalyteHBV, Status: entity.StatusNegative, Score: 3, Cutoff: 195.5},
			{Analyte: entity.AnalyteHCV, Status: entity.StatusNegative, Score: 0, Cutoff: 134.7},
		},
	}

	text := FormatResult(result)
	require.Contains(t, text, "нет сигнала")
	require.Contains(t, text, "HIV: Positive (score=120.50, cutoff=97.5)")
	require.Contains(t, text, "HCV: Negative")
	require.NotContains(t, text, msgSynthetic)
}
