// Package offline generates canned replies when the upstream generative API
// is unreachable or over quota. Matching is keyword-based, first match wins.
package offline

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	japanReply = "Japan is an island nation in East Asia, known for cherry blossoms, sushi, Mount Fuji, and its blend of tradition & technology."

	packingReply = "Essentials: Passport, travel tickets, wallet, phone, charger, clothes, toiletries, comfortable shoes, medicines, reusable water bottle."

	internshipReply = "Very good! Need any help? 😊"

	fallbackReply = "Sorry, I couldn't process that without AI. Please try again later."

	itineraryTemplate = `Here’s a 10-day itinerary for %s:
Day 1: Arrival & settle in
Day 2: City sightseeing
Day 3: Cultural landmarks
Day 4: Day trip nearby
Day 5: Nature exploration
Day 6: Food tour
Day 7: Adventure activities
Day 8: Shopping & nightlife
Day 9: Relax & spa
Day 10: Departure`
)

var destinationRe = regexp.MustCompile(`(?i)to\s(.+)`)

// Reply maps a prompt to a canned reply. It is pure: no state, no I/O, and it
// always returns a non-empty string. The match order is significant.
func Reply(prompt string) string {
	lower := strings.ToLower(prompt)

	switch {
	case strings.Contains(lower, "short info") || strings.Contains(lower, "japan"):
		return japanReply

	case strings.Contains(lower, "days") &&
		(strings.Contains(lower, "trip") || strings.Contains(lower, "itinerary") || strings.Contains(lower, "plan")):
		place := "your destination"
		if m := destinationRe.FindStringSubmatch(prompt); m != nil {
			place = m[1]
		}
		return fmt.Sprintf(itineraryTemplate, place)

	case strings.Contains(lower, "things to carry") || strings.Contains(lower, "what to pack"):
		return packingReply

	case strings.Contains(lower, "hello this is my internship assignment"):
		return internshipReply
	}

	return fallbackReply
}
