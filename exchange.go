package quotesheet

import "strings"

// exchanges lists the exchange codes, as reported by the identifier mapping
// service, with the suffix the market data provider appends to local tickers.
// An empty suffix means the bare ticker is the quote symbol (US venues).
//
// The order is the order of preference between listings of one security.
var exchanges = []struct{ code, suffix string }{
	{"XETR", ".DE"}, {"ETR", ".DE"}, {"FRA", ".F"},
	{"NYS", ""}, {"NAS", ""}, {"NMQ", ""}, {"NGM", ""}, {"ASE", ""},
	{"TSE", ".T"}, {"TYO", ".T"}, {"JPX", ".T"},
	{"LSE", ".L"}, {"IOB", ".IL"},
	{"MCE", ".MC"}, {"MIL", ".MI"}, {"PAR", ".PA"}, {"AMS", ".AS"},
	{"VIE", ".VI"}, {"SWX", ".SW"}, {"BRU", ".BR"}, {"CPH", ".CO"}, {"STO", ".ST"}, {"HEL", ".HE"},
	{"ASX", ".AX"}, {"TSX", ".TO"}, {"TSV", ".V"}, {"HKG", ".HK"}, {"SGX", ".SI"},
}

// exchangeRank maps an exchange code to its index in exchanges.
var exchangeRank = func() map[string]int {
	m := make(map[string]int, len(exchanges))
	for i, e := range exchanges {
		m[e.code] = i
	}
	return m
}()

// XetraSuffix is the suffix of German (Xetra) listings.
const XetraSuffix = ".DE"

// Suffix returns the quote symbol suffix for an exchange code.
// The lookup is case-insensitive.
func Suffix(exchCode string) (suffix string, ok bool) {
	i, ok := rank(exchCode)
	if !ok {
		return "", false
	}
	return exchanges[i].suffix, true
}

// rank returns the preference of an exchange, lower is better, and false if
// the exchange is not in the table.
func rank(exchCode string) (int, bool) {
	i, ok := exchangeRank[strings.ToUpper(strings.TrimSpace(exchCode))]
	return i, ok
}

// KnownExchange reports whether the exchange code is in the suffix table.
func KnownExchange(exchCode string) bool {
	_, ok := Suffix(exchCode)
	return ok
}

// ExchangeSuffixes returns a copy of the exchange suffix table.
func ExchangeSuffixes() map[string]string {
	m := make(map[string]string, len(exchanges))
	for _, e := range exchanges {
		m[e.code] = e.suffix
	}
	return m
}

// BuildSymbol builds the canonical quote symbol of a listing.
//
// A raw ticker that already contains a '.' (an existing suffix) or a '='
// (an FX pair) is returned unchanged. Otherwise the suffix of the exchange
// is appended, or fallback if the exchange is unknown.
//
// It returns "" if the raw ticker is blank.
func BuildSymbol(rawTicker, exchCode, fallback string) string {
	rawTicker = strings.TrimSpace(rawTicker)
	if rawTicker == "" {
		return ""
	}
	if strings.ContainsAny(rawTicker, ".=") {
		return rawTicker
	}
	suffix, ok := Suffix(exchCode)
	if !ok {
		suffix = fallback
	}
	return rawTicker + suffix
}
