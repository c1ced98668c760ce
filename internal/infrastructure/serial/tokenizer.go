package serial

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer собирает отсчёты из ASCII-потока "12,0,255\n..." кусками произвольной длины.
// Незавершённый последний токен ждёт следующего куска.
type Tokenizer struct {
	target  int
	pending []byte
	samples []uint8
}

// NewTokenizer создаёт токенизатор, который остановится на target отсчётах
func NewTokenizer(target int) *Tokenizer {
	return &Tokenizer{
		target:  target,
		samples: make([]uint8, 0, target),
	}
}

// Feed добавляет кусок данных и возвращает true, когда набрано target отсчётов.
func (t *Tokenizer) Feed(chunk []byte) bool {
	if t.Done() {
		return true
	}
	t.pending = append(t.pending, chunk...)
	text := decodeLossy(t.pending)

	parts := strings.FieldsFunc(text, isDelimiter)
	tail := ""
	if len(parts) > 0 && !endsWithDelimiter(text) {
		tail = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}

	for _, p := range parts {
		if v, ok := parseSample(p); ok {
			t.samples = append(t.samples, v)
		}
		if t.Done() {
			break
		}
	}
	t.pending = append(t.pending[:0], tail...)
	return t.Done()
}

// Done true, если отсчётов достаточно
func (t *Tokenizer) Done() bool {
	return len(t.samples) >= t.target
}

// Count число собранных отсчётов
func (t *Tokenizer) Count() int {
	return len(t.samples)
}

// Samples возвращает не больше target отсчётов
func (t *Tokenizer) Samples() []uint8 {
	if len(t.samples) > t.target {
		return t.samples[:t.target]
	}
	return t.samples
}

func isDelimiter(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}

func endsWithDelimiter(text string) bool {
	if text == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text)
	return isDelimiter(r)
}

// parseSample принимает "123" и "-5"; отрицательные и большие значения
// прижимаются к 0..255, прочие токены отбрасываются.
func parseSample(token string) (uint8, bool) {
	digits := strings.TrimPrefix(token, "-")
	if digits == "" || strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, false
	}
	if strings.HasPrefix(token, "-") {
		return 0, true
	}
	v, err := strconv.Atoi(digits)
	if err != nil || v > 255 {
		return 255, true
	}
	return uint8(v), true
}

// decodeLossy выбрасывает невалидные UTF-8 байты
func decodeLossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "")
}
