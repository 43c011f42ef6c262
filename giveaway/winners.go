package giveaway

import (
	"crypto/rand"
	"math/big"
)

// pickWinners samples without replacement, up to winnerCount entries. Fewer
// participants than winnerCount means everyone wins. The draw hands out real
// prizes, so the index comes from crypto/rand, not a seeded PRNG.
func pickWinners(participants []string, winnerCount int) []string {
	if len(participants) == 0 || winnerCount <= 0 {
		return nil
	}

	pool := make([]string, len(participants))
	copy(pool, participants)

	winners := make([]string, 0, winnerCount)
	for len(winners) < winnerCount && len(pool) > 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
		if err != nil {
			panic(err)
		}
		i := int(n.Int64())
		winners = append(winners, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}
	return winners
}
