// Command uxx-demo drives the kernel end to end: a bounded-buffer
// producer/consumer round followed by a dating-service matching round,
// on a cluster sized from the environment (UXX_DEFAULT_PROCESSORS and
// friends; see uxx.DefaultClusterConfig).
package main

import (
	"sync"

	_ "go.uber.org/automaxprocs" // cap GOMAXPROCS to the container CPU quota before any processor spins up

	"github.com/joeycumines/uxx"
	"github.com/joeycumines/uxx/cluster"
	"github.com/joeycumines/uxx/examples/boundedbuffer"
	"github.com/joeycumines/uxx/examples/dating"
	"github.com/joeycumines/uxx/task"
)

const (
	producers   = 8
	perProducer = 25
	couples     = 10
)

func main() {
	cfg := uxx.DefaultClusterConfig()
	c := cluster.New(nil)
	for i := 0; i < cfg.Processors+1; i++ {
		c.StartProcessor()
	}
	uxx.Teardown = c.Shutdown

	buf := boundedbuffer.New[int](10)
	var wg sync.WaitGroup
	wg.Add(producers + 1)
	for p := 0; p < producers; p++ {
		p := p
		task.Start(c, "producer", func(self *task.Task) error {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := buf.Insert(self, p*perProducer+i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	var consumed int
	task.Start(c, "consumer", func(self *task.Task) error {
		defer wg.Done()
		for i := 0; i < producers*perProducer; i++ {
			if _, err := buf.Remove(self); err != nil {
				return err
			}
			consumed++
		}
		return nil
	})
	wg.Wait()
	uxx.Log.Info().Int("consumed", consumed).Log("bounded buffer drained")

	svc := dating.NewTaskService(c)
	wg.Add(2 * couples)
	var mu sync.Mutex
	pairs := make(map[uint64]uint64)
	for i := 0; i < couples; i++ {
		i := i
		task.Start(c, "girl", func(self *task.Task) error {
			defer wg.Done()
			partner, err := svc.Girl(self, uint64(1000000+i))
			if err != nil {
				return err
			}
			mu.Lock()
			pairs[uint64(1000000+i)] = partner
			mu.Unlock()
			return nil
		})
		task.Start(c, "boy", func(self *task.Task) error {
			defer wg.Done()
			_, err := svc.Boy(self, uint64(2000000+i))
			return err
		})
	}
	wg.Wait()

	stopped := make(chan error, 1)
	task.Start(c, "stopper", func(self *task.Task) error {
		err := svc.Stop(self)
		stopped <- err
		return err
	})
	if err := <-stopped; err != nil {
		uxx.Log.Err().Err(err).Log("dating service shutdown failed")
		uxx.Exit(1)
	}
	uxx.Log.Info().Int("couples", len(pairs)).Log("dating service matched everyone")
	uxx.Exit(0)
}
