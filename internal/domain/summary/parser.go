// Package summary extracts structured fields from the semi-structured
// report strings produced by the analysis backend. The input is
// untrusted free text, so the parser is tolerant by default: unknown
// keys are dropped and unparseable numbers degrade to zero values
// instead of failing the whole parse.
package summary

import "strings"

// Fields is the closed set of targets a report string can populate.
// Values stay verbatim strings; use Currency/Count when a typed value
// is needed. Raw keeps the original input for audit.
type Fields struct {
	AccountID        string `json:"account_id,omitempty"`
	Created          string `json:"created,omitempty"`
	LastUpdated      string `json:"last_updated,omitempty"`
	TransactionCount string `json:"transaction_count,omitempty"`
	TotalUSDValue    string `json:"total_usd_value,omitempty"`
	DefiValue        string `json:"defi_value,omitempty"`
	NearBalance      string `json:"near_balance,omitempty"`
	USDCBalance      string `json:"usdc_balance,omitempty"`
	NekoBalance      string `json:"neko_balance,omitempty"`
	IsBot            string `json:"is_bot,omitempty"`
	EthAddress       string `json:"eth_address,omitempty"`
	TopInteractions  string `json:"top_interactions,omitempty"`
	NFTActivity      string `json:"nft_activity,omitempty"`
	CrossChain       string `json:"cross_chain,omitempty"`
	TradingActivity  string `json:"trading_activity,omitempty"`
	Raw              string `json:"raw"`
}

// vocabulary maps each recognized key (exact, case-sensitive) to the
// field it routes into. "Not a Bot" is handled separately because the
// key itself is the value.
var vocabulary = map[string]func(*Fields, string){
	"Account ID":        func(f *Fields, v string) { f.AccountID = v },
	"Created":           func(f *Fields, v string) { f.Created = v },
	"Last Updated":      func(f *Fields, v string) { f.LastUpdated = v },
	"Transaction Count": func(f *Fields, v string) { f.TransactionCount = v },
	"Total USD Value":   func(f *Fields, v string) { f.TotalUSDValue = v },
	"DeFi Value":        func(f *Fields, v string) { f.DefiValue = v },
	"NEAR Balance":      func(f *Fields, v string) { f.NearBalance = v },
	"USDC Balance":      func(f *Fields, v string) { f.USDCBalance = v },
	"NEKO Balance":      func(f *Fields, v string) { f.NekoBalance = v },
	"Ethereum Address":  func(f *Fields, v string) { f.EthAddress = v },
	"Top Interactions":  func(f *Fields, v string) { f.TopInteractions = v },
	"NFT Activity":      func(f *Fields, v string) { f.NFTActivity = v },
	"Cross-Chain":       func(f *Fields, v string) { f.CrossChain = v },
}

const notABotKey = "Not a Bot"

// Parse splits a report string into ";"-separated "key: value" pairs
// and routes each recognized key into its target field. Whitespace
// around keys and values is insignificant. A leading banner token on
// the first key is stripped by suffix-matching against the vocabulary.
// Unknown keys containing "trading" (any case) land in the
// trading-activity catch-all; any other unknown key is dropped.
func Parse(s string) Fields {
	f := Fields{Raw: s}

	for i, pair := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if i == 0 {
			key = stripBanner(key)
		}

		if key == notABotKey {
			// Presence of this key means "confirmed not a bot".
			f.IsBot = "false"
			continue
		}
		if assign, known := vocabulary[key]; known {
			assign(&f, value)
			continue
		}
		if strings.Contains(strings.ToLower(key), "trading") {
			f.TradingActivity = value
		}
		// Anything else is untrusted noise; drop it without failing.
	}
	return f
}

// stripBanner recovers a vocabulary key buried behind a leading banner
// token, e.g. "** Report ** Account ID" -> "Account ID".
func stripBanner(key string) string {
	if _, known := vocabulary[key]; known || key == notABotKey {
		return key
	}
	for k := range vocabulary {
		if strings.HasSuffix(key, k) {
			return k
		}
	}
	if strings.HasSuffix(key, notABotKey) {
		return notABotKey
	}
	return key
}
