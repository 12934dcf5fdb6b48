// Package pipeline executes the ordered stages of one game's import.
//
// A pipeline owns one game and a set of stages. At construction the
// stages' RunAfter declarations are resolved into a deterministic
// execution order; Run then drives the stages sequentially, isolating
// each stage's failures so one broken stage never prevents the others
// from running. After every stage the pipeline reports its progress
// through the advance callback, which is how the importer aggregates
// progress and detects completion across thousands of pipelines.
package pipeline
