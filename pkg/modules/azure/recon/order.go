package recon

// PhaseOrder lists the pipeline's module IDs in execution order. The run
// driver walks this list and checkpoints its index, so renumbering here
// invalidates existing run logs.
var PhaseOrder = []string{
	"subscriptions",
	"resources",
	"role-definitions",
	"role-assignments",
	"group-members",
	"combine-rbac",
	"user-profiles",
	"combine-identities",
	"role-matrix",
	"user-matrix",
	"role-chart",
	"user-chart",
}
