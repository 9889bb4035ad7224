package validator

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidCurrencyCode = errors.New("invalid currency code")
	ErrInvalidName         = errors.New("invalid name")
	ErrInvalidColor        = errors.New("invalid color")
)

var (
	// ISO-style alphabetic codes plus crypto tickers like BTC or DOGE.
	currencyCodeRegex = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)
	colorRegex        = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

func ValidateCurrencyCode(code string) error {
	if !currencyCodeRegex.MatchString(code) {
		return ErrInvalidCurrencyCode
	}
	return nil
}

// ValidateName covers wallet, tag and counterparty names: non-empty,
// bounded, no leading or trailing whitespace.
func ValidateName(name string) error {
	if name == "" || len(name) > 120 {
		return ErrInvalidName
	}
	if name[0] == ' ' || name[len(name)-1] == ' ' {
		return ErrInvalidName
	}
	return nil
}

// ValidateColor accepts an empty value or a #rrggbb hex color.
func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	if !colorRegex.MatchString(color) {
		return ErrInvalidColor
	}
	return nil
}
