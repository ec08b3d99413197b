package contextsvc

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encoderCache   = make(map[string]*tiktoken.Tiktoken)
	encoderCacheMu sync.RWMutex
)

// getEncoder returns a cached tiktoken encoder for the given encoding name.
func getEncoder(encoding string) (*tiktoken.Tiktoken, error) {
	encoderCacheMu.RLock()
	if tkm, ok := encoderCache[encoding]; ok {
		encoderCacheMu.RUnlock()
		return tkm, nil
	}
	encoderCacheMu.RUnlock()

	encoderCacheMu.Lock()
	defer encoderCacheMu.Unlock()
	if tkm, ok := encoderCache[encoding]; ok {
		return tkm, nil
	}
	tkm, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	encoderCache[encoding] = tkm
	return tkm, nil
}

// estimateTokens approximates the token count as ceil(bytes / 4).
func estimateTokens(body []byte) int {
	return (len(body) + 3) / 4
}

// countTokens returns the token count for body: exact when an encoding is
// configured and loadable, the byte-length estimate otherwise.
func (r *Resolver) countTokens(body []byte) int {
	if r.cfg.TokenEncoding != "" {
		tkm, err := getEncoder(r.cfg.TokenEncoding)
		if err == nil {
			return len(tkm.Encode(string(body), nil, nil))
		}
		r.log.Warn().Err(err).Str("encoding", r.cfg.TokenEncoding).Msg("Token encoding unavailable, falling back to estimate")
	}
	return estimateTokens(body)
}
