// Package pipeline orchestrates the conversion batch: discovery, bounded
// concurrent scheduling, and commutative result aggregation.
//
// The scheduler is a fan-out/fan-in coordinator. A fixed pool of workers
// drains an unbuffered task queue; archive expansions feed spawned tasks
// back into the queue through the coordinator, which also tracks each
// archive's subtree so the archive source is marked processed only after
// everything it contained has settled. Failure of one task never aborts
// the batch.
package pipeline
