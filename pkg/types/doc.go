/*
Package types defines the core data structures shared by the Info plane:
node identity, namespace configuration snapshots, SMD records, and the
request/reply value types the dispatcher and registry pass between each
other.

These are plain structs, not the subsystems that own them — the Config
Mutator owns the authoritative namespace/process configuration, the SMD
package owns the replicated record store, and the dispatcher owns request
lifecycle. This package only gives the rest of the tree a common vocabulary.
*/
package types
