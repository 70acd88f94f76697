// Package core loads the K-table into a ledger.
//
// The K-table is a fixed 91x30 grid of decimal coefficients: one row per tau
// bucket (labels 0, 10, ..., 900) and one column per sigma bucket (headers
// 0.0001, 0.0002, ...). The ledger stores integers only, so every coefficient
// is stored as floor(k x 2^64).
//
// # Pipeline
//
//  1. [LoadTable] reads the CSV and checks its shape with [ValidateShape].
//  2. [Flatten] walks rows then columns, deriving each cell's coordinates
//     with [ExpandIndex] and its value with [EncodeFixedPoint].
//  3. [Chunk] splits the sequence into batches of
//     [Dimensions.ChunkSize] cells (300 for the canonical table).
//  4. [Submit] sends the batches to a [BatchWriter] strictly one at a time.
//
// [Service.Load] runs all four steps. Every validation happens before the
// first batch is sent.
//
// # Exact arithmetic
//
// Decimals are parsed into pgtype.Numeric and scaled with math/big. No value
// passes through float64, so the stored integers are reproducible bit for bit.
//
// # Error Handling
//
// Each failure carries the stage it came from, available through [StageOf]:
//
//   - ShapeMismatch: the table does not have the expected shape
//   - IndexComputationError: a column header is not a decimal
//   - EncodingError: a coefficient cannot be stored as fixed point
//   - CountMismatch: flattening produced the wrong number of cells
//   - SubmissionFailure: the ledger rejected a batch
//
// [MapError] turns these into support codes and suggested actions.
//
// A submission failure stops the run. Batches already confirmed stay in the
// ledger; re-running the load overwrites every cell, so a failed run is
// repaired by running it again.
package core
