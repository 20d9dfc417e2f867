package password

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// defaultCommon es el set mínimo embebido; un archivo externo lo extiende.
var defaultCommon = []string{
	"password", "password1", "12345678", "123456789", "qwerty123",
	"iloveyou", "admin123", "welcome1", "letmein1", "abc12345",
}

type Blacklist struct {
	mu   sync.RWMutex
	data map[string]struct{}
}

// DefaultBlacklist retorna la blacklist embebida.
func DefaultBlacklist() *Blacklist {
	bl := &Blacklist{data: map[string]struct{}{}}
	for _, s := range defaultCommon {
		bl.data[s] = struct{}{}
	}
	return bl
}

// LoadBlacklist carga la blacklist embebida más un archivo opcional
// (un password por línea, '#' comenta).
func LoadBlacklist(path string) (*Blacklist, error) {
	bl := DefaultBlacklist()
	if strings.TrimSpace(path) == "" {
		return bl, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(strings.ToLower(sc.Text()))
		if s != "" && !strings.HasPrefix(s, "#") {
			bl.data[s] = struct{}{}
		}
	}
	return bl, sc.Err()
}

func (b *Blacklist) Contains(pwd string) bool {
	if b == nil {
		return false
	}
	p := strings.ToLower(strings.TrimSpace(pwd))
	b.mu.RLock()
	_, ok := b.data[p]
	b.mu.RUnlock()
	return ok
}
