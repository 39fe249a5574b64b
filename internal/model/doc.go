// Package model implements feature standardization, the fixed set of
// candidate regressors, k-fold cross-validated model selection and held-out
// evaluation.
//
// All regressors consume standardized features produced by a [Scaler] fitted
// on the training rows only. [SelectAndFit] scores each [Algorithm] in
// [Candidates] with 5-fold contiguous cross-validation, keeps the highest
// mean R² (first declared wins ties, NaN ranks last) and refits the winner on
// the full training set. The scaler and the winning regressor are bundled in
// a [TrainedPipeline] and always applied together.
package model
