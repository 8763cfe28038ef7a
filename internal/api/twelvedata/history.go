package twelvedata

// BarsForDays estimates how many bars of interval cover days, with a 10% buffer
func BarsForDays(interval string, days int) int {
	perDay := 0.0

	switch interval {
	case "1min":
		perDay = 24 * 60
	case "5min":
		perDay = 24 * 12
	case "15min":
		perDay = 24 * 4
	case "30min", "30m":
		perDay = 24 * 2
	case "45min":
		perDay = 24 * 60 / 45.0
	case "1h":
		perDay = 24
	case "2h":
		perDay = 12
	case "4h":
		perDay = 6
	case "8h":
		perDay = 3
	case "1day", "24h":
		perDay = 1
	case "1week":
		perDay = 1.0 / 7
	case "1month":
		perDay = 1.0 / 30
	default:
		perDay = 24
	}

	n := int(perDay * float64(days) * 1.1)
	if n < 1 {
		n = 1
	}
	return n
}
