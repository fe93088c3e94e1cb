package prefs

// Currency describes how the hosted document should format money. The JSON
// field names are the ones the hosted site reads from its `currency` cookie.
type Currency struct {
	Label           string `json:"label"`
	Symbol          string `json:"symbol"`
	Code            string `json:"currency"`
	Locale          string `json:"iso"`
	Flag            string `json:"flag"`
	Style           string `json:"style"`
	CurrencyDisplay string `json:"currencyDisplay"`
	FractionDigits  int    `json:"maximumFractionDigits"`
}

func (c Currency) Kind() Kind { return KindCurrency }
func (c Currency) ID() string { return c.Code }

func currency(code, symbol, name, locale, flag string, digits int) Currency {
	return Currency{
		Label:           symbol + " " + code + " - " + name,
		Symbol:          symbol,
		Code:            code,
		Locale:          locale,
		Flag:            flag,
		Style:           "currency",
		CurrencyDisplay: "symbol",
		FractionDigits:  digits,
	}
}

var currencies = []Currency{
	currency("INR", "₹", "Indian Rupee", "en-IN", "IN", 2),
	currency("USD", "$", "US Dollar", "en-US", "US", 2),
	currency("GBP", "£", "British Pound", "en-GB", "GB", 2),
	currency("EUR", "€", "Euro", "en-EU", "EU", 2),
	currency("JPY", "¥", "Japanese Yen", "ja-JP", "JP", 0),
	currency("CAD", "C$", "Canadian Dollar", "en-CA", "CA", 2),
	currency("AUD", "A$", "Australian Dollar", "en-AU", "AU", 2),
	currency("KRW", "₩", "South Korean Won", "ko-KR", "KR", 0),
}

// Currencies returns a copy of the supported catalog, default first.
func Currencies() []Currency {
	out := make([]Currency, len(currencies))
	copy(out, currencies)
	return out
}

// DefaultCurrency is the Indian Rupee.
func DefaultCurrency() Currency { return currencies[0] }

// CurrencyByCode finds a catalog entry by ISO code.
func CurrencyByCode(code string) (Currency, bool) {
	for _, c := range currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

var flagEmoji = map[string]string{
	"IN": "🇮🇳",
	"US": "🇺🇸",
	"GB": "🇬🇧",
	"EU": "🇪🇺",
	"JP": "🇯🇵",
	"CA": "🇨🇦",
	"AU": "🇦🇺",
	"KR": "🇰🇷",
}

// FlagEmoji returns the flag for a region code, or a globe when unknown.
func FlagEmoji(region string) string {
	if f, ok := flagEmoji[region]; ok {
		return f
	}
	return "🌍"
}
