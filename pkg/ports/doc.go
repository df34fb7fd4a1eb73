/*
Package ports defines the driven ports (interfaces) of the flowstudio dev backend.

These interfaces decouple the HTTP server from storage, so that the same
handlers run over memory or Redis.

# Key Interfaces

  - FlowRepository: persists the flow of each assistant.
  - CredentialRepository: stores typed secrets and hands out redacted views.
  - ComponentRepository: stores library components, public or private.
  - TriggerRepository: stores cron schedules and trigger invocation logs.
  - DistributedLocker: serializes writes to one assistant across replicas.

RunRepositoryContract verifies an implementation against the expected behavior.
*/
package ports
