package s1_returns

import "sync"

// tickerLocks serializes work on the same ticker.
// 참조 카운트가 0이 되면 맵에서 제거
type tickerLocks struct {
	mu    sync.Mutex
	locks map[string]*tickerLock
}

type tickerLock struct {
	sync.Mutex
	refs int
}

func newTickerLocks() *tickerLocks {
	return &tickerLocks{locks: make(map[string]*tickerLock)}
}

// lock blocks until ticker is free and returns its release func
func (l *tickerLocks) lock(ticker string) func() {
	l.mu.Lock()
	tl, ok := l.locks[ticker]
	if !ok {
		tl = &tickerLock{}
		l.locks[ticker] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.Lock()
	return func() {
		tl.Unlock()

		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, ticker)
		}
		l.mu.Unlock()
	}
}
