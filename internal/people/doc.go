// Package people persists the profiles and groups the approval engine and
// ledger operate over.
//
// The wider membership system owns profiles and groups; this package carries
// only what the core consumes: an identity, a group with a single leader as
// its authority-holder, the parent link that marks origin groups, and the
// one-group-per-profile membership the approval policy derives its consumer
// group from. The role-change effect (MakeLeader) lives here because an
// approved promotion delegates to the profile subsystem.
package people
