package calendar

import "github.com/shopspring/decimal"

var minutesPerHour = decimal.NewFromInt(60)

// Price = base * minutes / 60, округление до копеек half-up.
// Цены неотрицательные, поэтому Round (half away from zero) совпадает с half-up.
func Price(base decimal.Decimal, minutes int64) decimal.Decimal {
	return base.Mul(decimal.NewFromInt(minutes)).DivRound(minutesPerHour, 2)
}
