package executor

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/liammertens/conjunctive-queries/datalog/hypergraph"
	"github.com/liammertens/conjunctive-queries/datalog/query"
)

// NodeScan evaluates the base relations of one join tree node
type NodeScan func(n *hypergraph.Node) (*query.QueryResult, error)

// WorkerPool runs the leaf scans of one join tree level on a fixed number
// of goroutines. Nodes of a level are independent: each reads only its own
// atoms' relations and writes only its own result slot.
type WorkerPool struct {
	workerCount int
}

// NewWorkerPool creates a new worker pool
// workerCount: number of worker goroutines (0 = use NumCPU)
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	return &WorkerPool{
		workerCount: workerCount,
	}
}

// ScanNodes applies scan to every node and returns the results in node
// order. After the first failure the remaining queued nodes are skipped;
// the error of the earliest failing node is returned.
func (p *WorkerPool) ScanNodes(nodes []*hypergraph.Node, scan NodeScan) ([]*query.QueryResult, error) {
	results := make([]*query.QueryResult, len(nodes))
	if len(nodes) == 0 {
		return results, nil
	}
	errs := make([]error, len(nodes))

	jobs := make(chan int, len(nodes))
	for i := range nodes {
		jobs <- i
	}
	close(jobs)

	workers := p.workerCount
	if workers > len(nodes) {
		workers = len(nodes)
	}

	var failed atomic.Bool
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if failed.Load() {
					continue
				}
				results[idx], errs[idx] = scan(nodes[idx])
				if errs[idx] != nil {
					failed.Store(true)
				}
			}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("parallel scan of %s failed: %w", nodes[i].Key, err)
		}
	}
	return results, nil
}

// GetWorkerCount returns the number of worker goroutines
func (p *WorkerPool) GetWorkerCount() int {
	return p.workerCount
}
