package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stage int

func TestSafeRecoversPanics(t *testing.T) {
	o := Safe[stage](Func[stage](func(stage, string) {
		panic("renderer exploded")
	}))

	assert.NotPanics(t, func() {
		o.Report(1, "hello")
	})
}

func TestSafeNil(t *testing.T) {
	assert.NotPanics(t, func() {
		Safe[stage](nil).Report(1, "hello")
	})
}

func TestFuncForwards(t *testing.T) {
	var gotStage stage
	var gotMsg string
	Safe[stage](Func[stage](func(s stage, m string) {
		gotStage, gotMsg = s, m
	})).Report(3, "msg")

	assert.Equal(t, stage(3), gotStage)
	assert.Equal(t, "msg", gotMsg)
}

func TestFormatTransfer(t *testing.T) {
	assert.Equal(t, "1MB/2MB • 500kB/s", FormatTransfer(1_000_000, 2_000_000, 500_000))
	assert.Equal(t, "0B/? • 0B/s", FormatTransfer(0, -1, 0))
}

func TestMeterThrottles(t *testing.T) {
	now := time.Unix(0, 0)
	var messages []string
	m := NewMeter(time.Second, func(msg string) { messages = append(messages, msg) })
	m.now = func() time.Time { return now }

	m.Reset(4000)
	now = now.Add(2 * time.Second)
	m.Add(1000) // emits, interval elapsed since zero lastEmit
	m.Add(1000) // throttled
	now = now.Add(2 * time.Second)
	m.Add(1000) // emits
	m.Add(1000) // complete, always emits

	assert.Equal(t, []string{
		"1kB/4kB • 500B/s",
		"3kB/4kB • 750B/s",
		"4kB/4kB • 1kB/s",
	}, messages)
}
