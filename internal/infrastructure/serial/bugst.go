package serial

import (
	"fmt"

	bugst "go.bug.st/serial"
)

const (
	DriverBugst = "bugst" // go.bug.st/serial, управляет DTR/RTS
	DriverTarm  = "tarm"  // github.com/tarm/serial, без управления линиями
)

// LineController порт, умеющий управлять линиями DTR и RTS
type LineController interface {
	SetDTR(bool) error
	SetRTS(bool) error
}

type bugstPort struct {
	bugst.Port
}

// Flush сбрасывает входной и выходной буферы
func (p bugstPort) Flush() error {
	if err := p.ResetInputBuffer(); err != nil {
		return err
	}
	return p.ResetOutputBuffer()
}

// OpenBugst открывает порт через go.bug.st/serial
func OpenBugst(cfg Config) (Port, error) {
	p, err := bugst.Open(cfg.Port, &bugst.Mode{BaudRate: cfg.Baud})
	if err != nil {
		return nil, err
	}
	if cfg.ReadTimeout > 0 {
		if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
			p.Close()
			return nil, err
		}
	}
	return bugstPort{Port: p}, nil
}

// OpenerFor возвращает функцию открытия порта для драйвера из конфигурации.
func OpenerFor(driver string) (Opener, error) {
	switch driver {
	case "", DriverBugst:
		return OpenBugst, nil
	case DriverTarm:
		return OpenTarm, nil
	default:
		return nil, fmt.Errorf("unknown serial driver %q", driver)
	}
}
