// Package elo implements the Elo rating update used at game
// finalization.
package elo

import "math"

// Delta returns the rating points White gains (Black loses the same
// amount) for the given result. whiteScore is 1.0 for a White win,
// 0.0 for a loss and 0.5 for any draw.
func Delta(whiteElo, blackElo int, whiteScore float64, kFactor int) int {
	expectedWhite := 1 / (1 + math.Pow(10, float64(blackElo-whiteElo)/400))
	return int(math.Round(float64(kFactor) * (whiteScore - expectedWhite)))
}

// Clamp floors a rating at the configured minimum.
func Clamp(rating, minimum int) int {
	if rating < minimum {
		return minimum
	}
	return rating
}
