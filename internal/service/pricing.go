package service

// EffectivePrice applies a percent discount to a price in minor units.
// The discount amount is rounded half up.
func EffectivePrice(price int64, discount int) int64 {
	if discount <= 0 {
		return price
	}
	if discount > 100 {
		discount = 100
	}
	off := (price*int64(discount) + 50) / 100
	return price - off
}
