package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	tarm "github.com/tarm/serial"

	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

const (
	// RequestToken команда микроконтроллеру отдать кадр
	RequestToken = "99\n"

	readChunkSize = 4096
	settleDelay   = 50 * time.Millisecond
)

// Config параметры последовательного порта
type Config struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration // таймаут одного чтения
	TotalWait   time.Duration // сколько ждать после паузы в данных
}

// Port минимальный интерфейс открытого порта
type Port interface {
	io.ReadWriteCloser
	Flush() error
}

// Opener открывает порт по конфигурации
type Opener func(cfg Config) (Port, error)

// OpenTarm открывает порт через github.com/tarm/serial. Линиями DTR/RTS
// tarm не управляет.
func OpenTarm(cfg Config) (Port, error) {
	p, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Reader читает кадр 160x160 с микроконтроллера.
type Reader struct {
	cfg    Config
	open   Opener
	settle time.Duration
	now    func() time.Time
}

// NewReader создаёт считыватель кадров. open == nil означает OpenBugst.
func NewReader(cfg Config, open Opener) *Reader {
	if open == nil {
		open = OpenBugst
	}
	return &Reader{
		cfg:    cfg,
		open:   open,
		settle: settleDelay,
		now:    time.Now,
	}
}

// Read отправляет RequestToken и собирает entity.FramePixels отсчётов.
// Если данных не хватило, возвращается ошибка с entity.ErrShortFrame.
func (r *Reader) Read(ctx context.Context) (*entity.Frame, error) {
	p, err := r.open(r.cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.cfg.Port, err)
	}
	defer p.Close()

	// без DTR/RTS платы вроде Arduino не перезагружаются при открытии порта
	if lc, ok := p.(LineController); ok {
		if err := lc.SetDTR(false); err != nil {
			return nil, fmt.Errorf("clear DTR on %s: %w", r.cfg.Port, err)
		}
		if err := lc.SetRTS(false); err != nil {
			return nil, fmt.Errorf("clear RTS on %s: %w", r.cfg.Port, err)
		}
	}

	if err := r.sleep(ctx); err != nil {
		return nil, err
	}
	if err := p.Flush(); err != nil {
		return nil, fmt.Errorf("flush %s: %w", r.cfg.Port, err)
	}
	if _, err := p.Write([]byte(RequestToken)); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}
	if err := r.sleep(ctx); err != nil {
		return nil, err
	}

	tok := NewTokenizer(entity.FramePixels)
	buf := make([]byte, readChunkSize)
	start := r.now()
	for !tok.Done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := p.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read %s: %w", r.cfg.Port, err)
		}
		if n == 0 {
			// пауза в данных: сдаёмся, только если общее ожидание вышло
			if r.now().Sub(start) > r.cfg.TotalWait {
				break
			}
			continue
		}
		tok.Feed(buf[:n])
	}

	if !tok.Done() {
		return nil, fmt.Errorf("%w: %d of %d", entity.ErrShortFrame, tok.Count(), entity.FramePixels)
	}

	frame, err := entity.NewFrame(tok.Samples(), entity.FrameWidth, entity.FrameHeight)
	if err != nil {
		return nil, err
	}
	frame.Source = entity.SourceSerial
	log.Printf("[Serial] Frame received from %s", r.cfg.Port)
	return frame, nil
}

func (r *Reader) sleep(ctx context.Context) error {
	if r.settle <= 0 {
		return nil
	}
	t := time.NewTimer(r.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ port.FrameReader = (*Reader)(nil)
