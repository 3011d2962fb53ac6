package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("LEAVEDESK_TEST_MODE") == "" {
			_ = os.Setenv("LEAVEDESK_TEST_MODE", "1")
		}
	})
}
