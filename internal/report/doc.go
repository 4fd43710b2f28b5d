// Package report is the reporting sink of the synchronization pipeline.
//
// Pipeline stages emit human-readable stage lines, byte progress and a final
// success or failure summary through a Sink. Console renders them with pterm
// (plain lines when stdout is not a terminal), WithLog mirrors every event to
// the durable log, and Recorder keeps them in memory for tests.
package report
