// Package maddpg holds the actor and critic networks of a trained MADDPG
// ensemble. Only inference is implemented: networks are built from a seed or
// loaded from a JSON checkpoint of target weights, and expose the edi
// collaborator interfaces.
package maddpg
