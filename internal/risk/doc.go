// Package risk scores clinical feature sets against a fixed ensemble of
// pre-trained classifiers.
//
// Every model receives the same eight-value vector: the seven raw inputs of
// models.Features in declaration order followed by bmi/age. Each model yields
// the probability of the positive class, which is reported as a risk label and
// a percentage rounded to two decimals.
//
// Models are read from serialized artifacts once at startup (see LoadRegistry)
// and held in an immutable Registry. Scoring never mutates model state, so a
// single Ensemble is safe for concurrent use.
package risk
