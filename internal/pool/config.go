package pool

import "runtime"

type Config struct {
	// Workers bounds the number of tasks running at once. Zero or less means
	// one per CPU.
	Workers int
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}
