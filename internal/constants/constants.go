package constants

import "time"

// Redis keys
const (
	RedisKeyRecentActions = "farm:actions:recent"
	RedisKeyQuotePrefix   = "farm:quote:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelActions       = "farm:actions:all"
	PubSubChannelFarmPrefix    = "farm:actions:farm:"
	PubSubChannelNotifications = "farm:notifications"
)

// Limits
const (
	MaxRecentActions = 100
)

// Wallet
const (
	// SOLFeeReserve is kept back from a wrapped SOL max deposit for fees and rent.
	SOLFeeReserve = "0.05"
)

// Timeouts
const (
	DefaultConfirmTimeout = 60 * time.Second
	DefaultQuoteTTL       = 10 * time.Second
)

// Token mint addresses to symbols, used when a farm entry omits a symbol.
var TokenSymbols = map[string]string{
	"So11111111111111111111111111111111111111112":  "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": "RAY",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "JUP",
}

// SymbolFor returns the known symbol for a mint, or a shortened address.
func SymbolFor(mint string) string {
	if s, ok := TokenSymbols[mint]; ok {
		return s
	}
	if len(mint) > 8 {
		return mint[:4] + ".." + mint[len(mint)-4:]
	}
	return mint
}
