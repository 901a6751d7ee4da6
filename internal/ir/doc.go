// Package ir provides the canonical data model for nomina.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// record schema and the result shape the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Input records are immutable: validators receive *MappedData and never write to it
//   - Date and money cells keep the raw text delivered by ingestion; parsing
//     belongs to internal/shared so every validator interprets a cell the same way
//   - Rows are 1-based and stable; AffectedRows always index the collection named
//     by ValidationResult.Collection
//   - All JSON tags use snake_case
package ir
