package billing

// EntitlementDays converts a plan's billing interval into entitlement days.
// Monthly plans grant 30 days per interval, yearly 365; any other interval is
// taken as a raw day count.
func EntitlementDays(interval string, count int64) int64 {
	switch interval {
	case "month":
		return count * 30
	case "year":
		return count * 365
	default:
		return count
	}
}
