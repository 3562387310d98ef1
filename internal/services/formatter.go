package services

import (
	"fmt"
	"strings"
	"time"
)

// FormatBRL renders a price in Brazilian real notation: R$ 1.234,56.
func FormatBRL(value float64) string {
	s := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(s, ".", 2)
	intPart, decPart := parts[0], parts[1]

	negative := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var grouped []string
	for len(intPart) > 3 {
		grouped = append([]string{intPart[len(intPart)-3:]}, grouped...)
		intPart = intPart[:len(intPart)-3]
	}
	grouped = append([]string{intPart}, grouped...)

	result := "R$ " + strings.Join(grouped, ".") + "," + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// FormatRP renders an RP amount with dot thousands separators: 1.350 RP.
func FormatRP(amount int) string {
	s := fmt.Sprintf("%d", amount)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var grouped []string
	for len(s) > 3 {
		grouped = append([]string{s[len(s)-3:]}, grouped...)
		s = s[:len(s)-3]
	}
	grouped = append([]string{s}, grouped...)

	result := strings.Join(grouped, ".") + " RP"
	if negative {
		result = "-" + result
	}
	return result
}

// FormatDaysRemaining says how many whole days remain until t, for friendship
// eligibility countdowns.
func FormatDaysRemaining(now, t time.Time) string {
	if !now.Before(t) {
		return "disponível"
	}
	days := int(t.Sub(now).Hours()/24) + 1
	if days == 1 {
		return "1 dia restante"
	}
	return fmt.Sprintf("%d dias restantes", days)
}

// DiscordTimestamp renders a Discord relative-time tag.
func DiscordTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}
