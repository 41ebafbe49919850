package models

// InitResponse bootstraps a client session: the resolved username, the user's
// cumulative XP and their fragment group (assigned on first contact).
type InitResponse struct {
	Username      string `json:"username"`
	XP            int64  `json:"xp"`
	FragmentGroup int    `json:"fragmentGroup"`
}

// FragmentSubmission is the body for a fragment-clue attempt: the object ids
// the user selected plus the typed code.
type FragmentSubmission struct {
	ObjectIDs []int  `json:"objectIds"`
	Answer    string `json:"answer"`
}

// AnswerSubmission is the body for location-clue and main-clue attempts.
type AnswerSubmission struct {
	Answer string `json:"answer"`
}

// SubmitResult is the uniform outcome of any clue submission.
type SubmitResult struct {
	Correct     bool   `json:"correct"`
	XPGained    int64  `json:"xpGained"`
	First       bool   `json:"first"`
	AlreadyDone bool   `json:"alreadyDone"`
	Prereq      string `json:"prereq,omitempty"`
	Message     string `json:"message"`
}

// LeaderboardEntry is one row of the ranked XP view.
type LeaderboardEntry struct {
	Username string `json:"username"`
	XP       int64  `json:"xp"`
}

// RankResponse is a single user's leaderboard position. Rank is 1-based
// descending; Ranked is false when the user has no ledger entry.
type RankResponse struct {
	Username string `json:"username"`
	Ranked   bool   `json:"ranked"`
	Rank     int    `json:"rank,omitempty"`
}
