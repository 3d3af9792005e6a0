// Package trainer drives the minimization of a differentiable objective, such
// as the HMM objective, with gonum's LBFGS, and saves and restores its
// parameter vector as compressed checkpoints.
package trainer
