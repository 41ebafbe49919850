package engine

import "fmt"

// Submission kinds. They name the rate-limit scope and the metrics label for
// each clue tier.
const (
	KindFragment = "fragment"
	KindLocation = "location"
	KindMain     = "main"
)

// LeaderboardKey is the sorted set holding every user's cumulative XP.
const LeaderboardKey = "leaderboard:xp"

// Key layout is stable: existing stored progress must survive upgrades.
// Done markers are hashes keyed by username, first markers are scalars
// holding the first solver's username.

func assignmentKey(username string) string {
	return "fragment:" + username
}

func fragmentDoneKey(mysteryID, location string, group int) string {
	return fmt.Sprintf("fragment_done:%s:%s:%d", mysteryID, location, group)
}

func fragmentFirstKey(mysteryID, location string, group int) string {
	return fmt.Sprintf("fragment_first:%s:%s:%d", mysteryID, location, group)
}

func locationDoneKey(mysteryID, location string) string {
	return fmt.Sprintf("location_done:%s:%s", mysteryID, location)
}

func locationFirstKey(mysteryID, location string) string {
	return fmt.Sprintf("location_first:%s:%s", mysteryID, location)
}

func mainDoneKey(mysteryID string) string {
	return "main_done:" + mysteryID
}

func mainFirstKey(mysteryID string) string {
	return "main_first:" + mysteryID
}

// rateLimitKey guards one (user, mystery, location, kind) tuple. Main-clue
// attempts have no location; they use "-" in that slot.
func rateLimitKey(username, mysteryID, location, kind string) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s:%s", username, mysteryID, location, kind)
}
