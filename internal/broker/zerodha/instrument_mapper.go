package zerodha

import (
	"fmt"
	"sync"
)

// instrumentMapper maps trading symbols to Kite instrument tokens for one exchange.
type instrumentMapper struct {
	mu            sync.RWMutex
	symbolToToken map[string]int
	loaded        bool
}

func newInstrumentMapper() *instrumentMapper {
	return &instrumentMapper{symbolToToken: make(map[string]int)}
}

func (im *instrumentMapper) addMapping(symbol string, token int) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.symbolToToken[symbol] = token
}

func (im *instrumentMapper) getToken(symbol string) (int, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()
	token, ok := im.symbolToToken[symbol]
	return token, ok
}

func (im *instrumentMapper) isLoaded() bool {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.loaded
}

func (im *instrumentMapper) markLoaded() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.loaded = true
}

// resolve looks a symbol up, loading the instrument dump once on first use.
func (im *instrumentMapper) resolve(symbol string, load func() (map[string]int, error)) (int, error) {
	if token, ok := im.getToken(symbol); ok {
		return token, nil
	}
	if im.isLoaded() {
		return 0, fmt.Errorf("unknown instrument %s", symbol)
	}
	all, err := load()
	if err != nil {
		return 0, fmt.Errorf("load instruments: %w", err)
	}
	for s, t := range all {
		im.addMapping(s, t)
	}
	im.markLoaded()
	if token, ok := im.getToken(symbol); ok {
		return token, nil
	}
	return 0, fmt.Errorf("unknown instrument %s", symbol)
}
