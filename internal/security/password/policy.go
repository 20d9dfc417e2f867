package password

import (
	"strings"
	"unicode"
)

// Policy valida complejidad de passwords. Pluggable: los services reciben
// la interfaz, no la implementación.
type Policy interface {
	// Validate retorna ok=false con los motivos de rechazo.
	Validate(s string) (ok bool, reasons []string)
}

// DefaultPolicy implementa la política estándar: longitud mínima, no
// puramente numérico, no presente en la blacklist de passwords comunes.
type DefaultPolicy struct {
	MinLength int
	Blacklist *Blacklist // nil = sin blacklist
}

func NewDefaultPolicy(bl *Blacklist) DefaultPolicy {
	return DefaultPolicy{MinLength: 8, Blacklist: bl}
}

func (p DefaultPolicy) Validate(s string) (ok bool, reasons []string) {
	minLen := p.MinLength
	if minLen <= 0 {
		minLen = 8
	}
	if len([]rune(s)) < minLen {
		reasons = append(reasons, "too_short")
	}
	if s != "" && isAllDigits(s) {
		reasons = append(reasons, "entirely_numeric")
	}
	if p.Blacklist.Contains(s) {
		reasons = append(reasons, "too_common")
	}
	return len(reasons) == 0, reasons
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// FormatReasons junta los motivos para mensajes de error.
func FormatReasons(reasons []string) string {
	return strings.Join(reasons, ", ")
}
