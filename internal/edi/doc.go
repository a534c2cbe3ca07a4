// Package edi builds the training set for the communication gate.
//
// For every pair of timesteps (i, j), i < j, along a trajectory, the builder
// asks the critics how much the cooperating agents' summed return at j would
// drop if they acted on the joint action chosen at i instead of the one chosen
// at j (zeta). Each cooperating agent contributes one sample pairing its two
// observations and zeta with the distance between those observations.
//
// Actor and critic evaluations are read-only forward passes on a trained
// [Ensemble]; the builder never updates parameters.
package edi
