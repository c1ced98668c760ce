package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"multicap-dx/config"
	"multicap-dx/internal/api/telegram"
	"multicap-dx/internal/api/web"
	"multicap-dx/internal/container"
	"multicap-dx/internal/domain/port"
	"multicap-dx/internal/infrastructure/messaging"
	"multicap-dx/internal/infrastructure/serial"
	"multicap-dx/internal/infrastructure/storage"
	"multicap-dx/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Подписчики событий: браузеры по websocket и, если задан брокер, MQTT
	hub := web.NewHub()
	publishers := []port.EventPublisher{hub}
	if cfg.MQTTBroker != "" {
		client, err := messaging.NewMQTTClient(messaging.MQTTConfig{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
		})
		if err != nil {
			log.Fatalf("Failed to connect MQTT: %v", err)
		}
		mqttPublisher := messaging.NewMQTTPublisher(client, cfg.MQTTTopicPrefix)
		defer mqttPublisher.Close()
		publishers = append(publishers, mqttPublisher)
		log.Printf("Publishing events to %s", cfg.MQTTBroker)
	}

	opener, err := serial.OpenerFor(cfg.SerialDriver)
	if err != nil {
		log.Fatalf("Failed to configure serial port: %v", err)
	}
	reader := serial.NewReader(serial.Config{
		Port:        cfg.SerialPort,
		Baud:        cfg.SerialBaud,
		ReadTimeout: cfg.SerialReadTimeout,
		TotalWait:   cfg.SerialTotalWait,
	}, opener)

	var fallback port.FrameReader
	if cfg.SyntheticFallback {
		fallback = serial.NewNoiseReader(0)
		log.Println("Synthetic fallback is enabled: reader failures produce noise frames")
	}

	artifacts := storage.NewCSVArtifactStore(cfg.OutputDir)

	// Собираем сервисы приложения
	appContainer := container.New(container.Deps{
		Reader:    reader,
		Fallback:  fallback,
		Rotator:   vision.NewGiftRotator(),
		Renderer:  vision.NewPNGRenderer(),
		Store:     storage.NewMemoryFrameStore(),
		Artifacts: artifacts,
		Publisher: messaging.NewFanout(publishers...),
		Cutoffs:   cfg.Cutoffs,
	})

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID, appContainer.CaptureService, appContainer.ExtractionService)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		go func() {
			log.Println("Bot is running...")
			if err := bot.Run(ctx); err != nil {
				log.Printf("Bot error: %v", err)
			}
		}()
	}

	server := web.NewServer(cfg.HTTPAddr, appContainer.CaptureService, appContainer.ExtractionService, appContainer.Artifacts, hub)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
