// Package engine orchestrates validators over one immutable dataset.
//
// A run moves through Idle → Scheduling → Running → Aggregated and ends in
// Completed or Failed:
//
//  1. Scheduling: descriptors are planned into tiers with Kahn's algorithm.
//     A validator lands one tier after the deepest validator it depends on.
//     Unknown dependency names are ignored with a warning; a dependency
//     cycle fails planning with the cycle path.
//  2. Running: tiers run in order. Validators inside a tier run
//     concurrently, each under its own deadline, and see the results of
//     every earlier tier. An error, panic or timeout replaces a validator's
//     output with a single SYSTEM_ERROR result; its dependents still run.
//  3. Aggregated: results are normalized and ordered by tier, then
//     priority, then declaration order.
//
// Caller cancellation stops scheduling further tiers and the run ends
// Failed with whatever results were already collected.
//
// The engine never decides whether a dataset is acceptable. Callers gate on
// the report (see report.Summary.BlocksValuation).
package engine
