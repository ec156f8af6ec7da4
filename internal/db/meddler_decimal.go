package db

import (
	"fmt"

	"github.com/russross/meddler"
	"github.com/shopspring/decimal"
)

func init() {
	// Register custom meddler converter for decimal.Decimal
	meddler.Register("decimal", DecimalMeddler{})
}

// DecimalMeddler handles conversion between decimal.Decimal and database
// string representation. Values are stored as TEXT to keep them exact.
type DecimalMeddler struct{}

func (d DecimalMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	// Provide a string pointer to scan the database value into
	return new(string), nil
}

func (d DecimalMeddler) PostRead(fieldAddr, scanTarget interface{}) error {
	// Convert the scanned string to decimal.Decimal
	s := scanTarget.(*string)
	value, err := decimal.NewFromString(*s)
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", *s, err)
	}

	// Set the value in the field
	ptr := fieldAddr.(*decimal.Decimal)
	*ptr = value
	return nil
}

func (d DecimalMeddler) PreWrite(field interface{}) (saveValue interface{}, err error) {
	// Convert decimal.Decimal to string for database storage
	if value, ok := field.(decimal.Decimal); ok {
		return value.String(), nil
	}
	return "", fmt.Errorf("expected decimal.Decimal, got %T", field)
}
