// Package engine runs rules: it expands a rule's source pattern, evaluates
// the rule's tests against every candidate file, and folds the rule's
// actions over a per-file [State] for the files that pass.
//
// Tests and actions are looked up by kind name in two registries owned by
// the [Engine]. [New] installs the built-in kinds; RegisterTest and
// RegisterAction add or replace kinds (last registration wins).
//
// Actions report through the three-case [Outcome]: [Continue] with a new
// state, [Unchanged], or [Abort]. An abort stops the remaining actions for
// that file only. Filesystem effects of earlier actions stay in place.
package engine
