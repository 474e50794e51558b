package safe

import (
	"github.com/vkmindia80/Unified/logger"
)

// Go starts a goroutine that recovers from panics so a misbehaving handler
// cannot take down the gateway process.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
