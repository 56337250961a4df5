package download

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelToken(t *testing.T) {
	tok := NewCancelToken()
	assert.False(t, tok.Cancelled())

	select {
	case <-tok.Done():
		t.Fatal("token must not be done before Cancel")
	default:
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok.Cancel()
		}()
	}
	wg.Wait()

	assert.True(t, tok.Cancelled())
	<-tok.Done()
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, float64(0), Percentage(10, 0))
	assert.Equal(t, float64(50), Percentage(50, 100))
	assert.Equal(t, float64(100), Percentage(100, 100))
}
