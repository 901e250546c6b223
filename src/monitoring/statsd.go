package monitoring

import (
	"fmt"
	"time"

	"github.com/cactus/go-statsd-client/v5/statsd"
)

func Connect(host, port, prefix string) (statsd.Statter, error) {
	address := fmt.Sprintf("%s:%s", host, port)

	config := statsd.ClientConfig{
		Address:       address,
		Prefix:        prefix,
		TagFormat:     statsd.InfixComma,
		UseBuffered:   true,
		FlushInterval: 1 * time.Second,
	}

	return statsd.NewClientWithConfig(&config)
}

// Increment bumps a counter. A nil client disables metrics for the run.
func Increment(name string, client statsd.Statter) {
	if client == nil {
		return
	}
	if err := client.Inc(name, 1, 1.0); err != nil {
		fmt.Println(err)
	}
}

// IncrementBy bumps a counter by n.
func IncrementBy(name string, n int64, client statsd.Statter) {
	if client == nil {
		return
	}
	if err := client.Inc(name, n, 1.0); err != nil {
		fmt.Println(err)
	}
}

// Timing records the elapsed milliseconds since start.
func Timing(name string, client statsd.Statter, start time.Time, tags ...statsd.Tag) {
	if client == nil {
		return
	}
	delta := time.Since(start).Milliseconds()
	if err := client.Timing(name, delta, 1.0, tags...); err != nil {
		fmt.Println(err)
	}
}
