// Package pipeline wires the agent stages into one synchronous run:
//
//	Source.LocateCSV -> Source.Fetch -> table.Parse -> compute.Extract -> Publisher.Ship
//
// Every collaborator is passed in through Deps, so the parser and extractor
// stay free of network and logging side effects. Each Run gets its own
// run_id and logs the invocation event, the extracted result and any failure.
//
// Serve is the scheduled trigger used by `agent serve`: it runs the pipeline
// on an interval and skips weekends in the configured timezone.
package pipeline
