package executor

// ExecutorOptions controls how the evaluator runs. The zero value is a
// sequential evaluator without debug output.
type ExecutorOptions struct {
	// Parallel execution options
	ParallelLeafScans bool // Scan the base relations of one tree level concurrently
	MaxWorkers        int  // Worker count for parallel scans (0 = NumCPU)

	EnableDebugLogging bool
}
