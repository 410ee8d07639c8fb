package auth

// BlockingStrategy is the older decision contract: retry if ShouldRetry
// returns true, otherwise not.
type BlockingStrategy interface {
	Authenticator
	ShouldRetry(result Result) bool
}

type blockingAdapter struct {
	BlockingStrategy
}

func adaptBlocking(s BlockingStrategy) Strategy {
	return blockingAdapter{s}
}

func (b blockingAdapter) RetryIfShould(result Result, retry func(), notRetry func()) {
	if b.ShouldRetry(result) {
		retry()
		return
	}
	notRetry()
}
