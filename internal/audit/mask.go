package audit

// MaskAccount hides all but the first five characters of an author account id.
func MaskAccount(id string) string {
	return prefix(id, 5) + "xxxxxxxx"
}

// MaskOrder keeps the first five characters of a trade number.
func MaskOrder(tradeNo string) string {
	return prefix(tradeNo, 5)
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
