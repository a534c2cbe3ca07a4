// Package world implements the multi-agent particle world: landmarks and
// agents in the [-1, 1] square, a soft pairwise collision response, and one
// physics step per [Mode].
//
// A step runs in a fixed pass order: scripted actions, action forces,
// environment (collision) forces, integration, communication state, then the
// mode-specific post-processing. Entities are owned by the World; callers may
// add entities between steps only.
package world
