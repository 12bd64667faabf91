package utils

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	gstinRegex     = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	stateCodeRegex = regexp.MustCompile(`^[0-9]{2}$`)
	controlChars   = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// maxInvoiceAmount caps a single invoice
var maxInvoiceAmount = decimal.NewFromInt(1_000_000_000)

// ValidateGSTIN validates a 15 character Indian GST identification number
func ValidateGSTIN(gstin string) error {
	if !gstinRegex.MatchString(gstin) {
		return fmt.Errorf("invalid GSTIN format: %s", gstin)
	}
	return nil
}

// ValidateStateCode validates a two digit GST state code (01-38, 97 and 99)
func ValidateStateCode(code string) error {
	if !stateCodeRegex.MatchString(code) {
		return fmt.Errorf("state code must be two digits: %q", code)
	}

	n, _ := strconv.Atoi(code)
	if (n < 1 || n > 38) && n != 97 && n != 99 {
		return fmt.Errorf("unknown state code: %s", code)
	}
	return nil
}

// ValidateAmount validates an invoice amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("amount must not be negative: %s", amount)
	}

	if amount.GreaterThan(maxInvoiceAmount) {
		return fmt.Errorf("amount exceeds maximum limit: %s", amount)
	}

	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
