// Package integration contains the Integration bounded context.
// This context manages synchronization between the local catalog and
// external e-commerce platforms.
//
// Key concepts:
//   - SyncJob: A unit of reconciliation work with a pending/running/terminal lifecycle
//   - SyncSchedule: Recurring sync configuration with frequency and active-hours gating
//   - SyncConflict: A detected divergence between local and platform snapshots
//   - ConflictResolution: Immutable record of how one conflict was resolved
//   - EntitySnapshot: Comparable field-level view of an entity on either side
//
// Design Pattern: Ports & Adapters
//   - Ports (PlatformClient, LocalCatalog, SyncEngine, repositories) are defined here
//   - Adapters (Shopify client, GORM repositories, the sync engine) are in
//     the application and infrastructure layers
package integration
