package neo

import (
	"math/rand"
	"strconv"
	"time"
)

// nowFunc is swappable in tests.
var nowFunc = time.Now

// CommandHash returns the 7-digit value the command endpoint expects in
// every payload: the last seven digits of wall-clock milliseconds since
// epoch. It is a liveness nonce, not a security token, and need not be
// unique across the fleet. Falls back to a random 7-digit number if the
// clock reads nonsense.
func CommandHash() string {
	ms := nowFunc().UnixMilli()
	s := strconv.FormatInt(ms, 10)
	if ms <= 0 || len(s) < 7 {
		return strconv.Itoa(1000000 + rand.Intn(9000000))
	}
	return s[len(s)-7:]
}
