// Package main trains an HMM part-of-speech style tagger on a plain text
// corpus, one sentence per line, by direct gradient minimization of its
// penalized negative log-likelihood.
package main
