package callmelater

import "strings"

// SplitRecipients splits a comma-separated list, trims each entry and drops
// empty ones. Order is preserved.
func SplitRecipients(list string) []string {
	recipients := []string{}

	for _, r := range strings.Split(list, ",") {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}

	return recipients
}
