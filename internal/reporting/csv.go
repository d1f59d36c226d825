package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders blog rows as CSV string.
func RenderCSV(rows []BlogRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("state,authority,paused,premium_fee,standard_issued,premium_issued,")
	sb.WriteString("donations,premium_revenue,withdrawn,surplus,notifications,last_slot\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%t,%d,%d,%d,%d,%d,%d,%d,%d,%d\n",
			r.State,
			r.Authority,
			r.Paused,
			r.PremiumFee,
			r.StandardIssued,
			r.PremiumIssued,
			r.Donations,
			r.PremiumRevenue,
			r.Withdrawn,
			r.Surplus,
			r.Notifications,
			r.LastSlot,
		))
	}

	return sb.String()
}
