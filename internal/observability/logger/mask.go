package logger

import "strings"

// maskEmail reduce un email a la primera letra de cada segmento antes de
// loguearlo: "pat1@example.com" → "p…@e….com". Sin '@' devuelve una versión
// degradada que nunca expone el valor completo.
func maskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	at := strings.IndexByte(s, '@')
	if at <= 0 {
		switch {
		case s == "":
			return ""
		case len(s) <= 3:
			return "***"
		default:
			return s[:1] + "…" + s[len(s)-1:]
		}
	}

	local, domain := s[:at], s[at+1:]
	if len(local) > 1 {
		local = local[:1] + "…"
	}
	switch dot := strings.IndexByte(domain, '.'); {
	case dot > 1:
		domain = domain[:1] + "…" + domain[dot:]
	case dot < 0 && len(domain) > 1:
		domain = domain[:1] + "…"
	}
	return local + "@" + domain
}
