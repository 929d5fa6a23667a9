package sniffer

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// DataType is the coarse type of a field value used by the header sniffer
type DataType string

const (
	TypeNumeric  DataType = "numeric"
	TypeDatetime DataType = "datetime"
	TypeCurrency DataType = "currency"
	TypeAlpha    DataType = "alpha"
	TypeAlnum    DataType = "alnum"
	TypeBlank    DataType = "blank"
	TypeJSON     DataType = "json"
	TypeString   DataType = "string"
)

var (
	numericPattern  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	currencyPattern = regexp.MustCompile(`^[+-]?[¥£€$]\d+(\.\d+)?$`)
	alphaPattern    = regexp.MustCompile(`^\pL+$`)
	alnumPattern    = regexp.MustCompile(`^[\pL\pN_]+$`)
)

// dateLayouts are tried in order by isDatetime
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02.01.2006",
	"02.01.2006 15:04",
	"01/02/2006",
	"01/02/06",
	"1/2/2006",
	"01-02-2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2006",
	"15:04",
	"15:04:05",
	"3:04pm",
	"3:04PM",
	"3pm",
}

// IsNumeric reports whether value is a plain decimal or scientific number
func IsNumeric(value string) bool {
	return numericPattern.MatchString(strings.TrimSpace(value))
}

func isDatetime(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

func isJSON(value string) bool {
	if !strings.HasPrefix(value, "{") && !strings.HasPrefix(value, "[") {
		return false
	}
	return json.Valid([]byte(value))
}

// DetectType classifies a single unquoted field value.
// The order of the checks matters: "2024" is numeric, not a date.
func DetectType(value string) DataType {
	switch {
	case strings.TrimSpace(value) == "":
		return TypeBlank
	case IsNumeric(value):
		return TypeNumeric
	case currencyPattern.MatchString(value):
		return TypeCurrency
	case alphaPattern.MatchString(value):
		return TypeAlpha
	case isDatetime(value):
		return TypeDatetime
	case alnumPattern.MatchString(value):
		return TypeAlnum
	case isJSON(value):
		return TypeJSON
	default:
		return TypeString
	}
}
