// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SessionSource: Discovers sessions and loads/saves their artifacts
//   - ConfigStore: Application configuration
//   - ReviewStore: Review workflow persistence
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SessionRegistry: Session index checked against the outputs
//     fingerprint. Without it, every consolidation walks the outputs directory.
//   - SchemaGenerator: JSON schemas for exports. Without it, exports omit schemas.
//   - QualityScorer: Scores affinity sets submitted without a score.
//   - Metrics: Operational counters. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or driving package
package driven
