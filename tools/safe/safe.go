package safe

import (
	"matchakit/logger"
)

// Go starts a goroutine that recovers from panic, so a bad frame or a
// misbehaving callback never takes down the host application.
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
