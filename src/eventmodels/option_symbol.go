package eventmodels

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// OptionSymbol is an OCC option symbol, e.g. SPY240621C00450000.
type OptionSymbol string

type OptionSymbolComponents struct {
	Underlying  string
	Expiration  time.Time
	OptionType  OptionType
	StrikePrice float64
}

func (s OptionSymbol) Description() (string, error) {
	components, err := ParseOptionSymbol(s)
	if err != nil {
		return "", fmt.Errorf("OptionSymbol.Description: failed to parse option symbol: %w", err)
	}

	expiration := components.Expiration.Format("Jan 2 2006")
	strikePrice := fmt.Sprintf("%.2f", components.StrikePrice)

	optionType := "Call"
	if components.OptionType == Put {
		optionType = "Put"
	}

	return fmt.Sprintf("%s %s $%s %s", components.Underlying, expiration, strikePrice, optionType), nil
}

func NewOptionSymbol(option OptionSymbolComponents) (OptionSymbol, error) {
	if err := option.OptionType.Validate(); err != nil {
		return "", fmt.Errorf("NewOptionSymbol: %w", err)
	}

	if option.Underlying == "" {
		return "", fmt.Errorf("NewOptionSymbol: underlying is empty")
	}

	year := option.Expiration.Year() % 100
	month := int(option.Expiration.Month())
	day := option.Expiration.Day()

	// strike is encoded in thousandths, padded to 8 digits
	strikePrice := fmt.Sprintf("%08d", int64(math.Round(option.StrikePrice*1000)))

	ticker := fmt.Sprintf("%s%02d%02d%02d%s%s",
		strings.ToUpper(option.Underlying), year, month, day, option.OptionType.Code(), strikePrice)

	return OptionSymbol(ticker), nil
}

func ParseOptionSymbol(s OptionSymbol) (OptionSymbolComponents, error) {
	raw := strings.TrimPrefix(string(s), "O:")

	// root + YYMMDD + C/P + 8 strike digits
	if len(raw) < 16 {
		return OptionSymbolComponents{}, fmt.Errorf("ParseOptionSymbol: symbol too short: %s", s)
	}

	tail := raw[len(raw)-15:]
	underlying := raw[:len(raw)-15]

	expiration, err := time.Parse("060102", tail[:6])
	if err != nil {
		return OptionSymbolComponents{}, fmt.Errorf("ParseOptionSymbol: invalid expiration in %s: %w", s, err)
	}

	var optionType OptionType
	switch tail[6] {
	case 'C':
		optionType = Call
	case 'P':
		optionType = Put
	default:
		return OptionSymbolComponents{}, fmt.Errorf("ParseOptionSymbol: invalid option type in %s", s)
	}

	strike, err := strconv.ParseInt(tail[7:], 10, 64)
	if err != nil {
		return OptionSymbolComponents{}, fmt.Errorf("ParseOptionSymbol: invalid strike in %s: %w", s, err)
	}

	return OptionSymbolComponents{
		Underlying:  underlying,
		Expiration:  expiration,
		OptionType:  optionType,
		StrikePrice: float64(strike) / 1000,
	}, nil
}
