// Package scenario builds the predator/prey tag world, turns it into per-agent
// observations and decodes policy outputs back into agent actions.
package scenario
