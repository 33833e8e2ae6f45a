// Package neuro provides the core data types shared by the dashboard engine.
//
// The package defines what one polling tick looks like and how the rest of
// the system refers to sensors and hemispheres:
//
//   - [Snapshot]: one tick's readings across all sensors
//   - [Reading]: named scalar metrics for a single sensor
//   - [Half]: one anatomical hemisphere
//   - [Missing]: sentinel for a metric the sensor failed to report
//
// # Example
//
//	snap := neuro.NewSnapshot("session-1")
//	snap.Set("sensor_a", neuro.Reading{neuro.MetricAttention: 90})
//	att := snap.Readings["sensor_a"].Value(neuro.MetricAttention, 50)
//
// # Ownership
//
// Snapshots are treated as immutable once captured. Anything that keeps a
// snapshot beyond the current tick stores a [Snapshot.Clone].
package neuro
