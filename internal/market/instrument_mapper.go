package market

import (
	"sync"
)

// instrumentMapper maps "EXCHANGE:SYMBOL" keys to Kite instrument tokens.
type instrumentMapper struct {
	symbolToToken map[string]int
	loaded        map[string]bool
	mu            sync.RWMutex
}

func newInstrumentMapper() *instrumentMapper {
	return &instrumentMapper{
		symbolToToken: make(map[string]int),
		loaded:        make(map[string]bool),
	}
}

func mapperKey(exchange, symbol string) string {
	return exchange + ":" + symbol
}

func (im *instrumentMapper) addMapping(exchange, symbol string, token int) {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.symbolToToken[mapperKey(exchange, symbol)] = token
}

func (im *instrumentMapper) getToken(exchange, symbol string) (int, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	token, exists := im.symbolToToken[mapperKey(exchange, symbol)]
	return token, exists
}

func (im *instrumentMapper) isLoaded(exchange string) bool {
	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.loaded[exchange]
}

func (im *instrumentMapper) markLoaded(exchange string) {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.loaded[exchange] = true
}
