// Package pkg provides the core libraries for mvnmirror dependency
// tracing and repository mirroring.
//
// # Overview
//
// mvnmirror answers two questions about a Maven project: which artifacts
// does a build actually need, and why. It shells out to Maven for the
// authoritative dependency tree, reconstructs the provenance chain of
// every artifact, and selectively copies what is needed from one
// repository tree into another. The pkg directory is organized along that
// flow:
//
//  1. [maven] / [treeparse] / [pom] - acquisition (invoke Maven, parse
//     tree text and POM documents)
//  2. [artifact] / [chain] / [analysis] - the domain model (coordinates,
//     provenance chains, classification)
//  3. [mirror] / [sweep] - repository manipulation (selective copy,
//     resolver-leftover cleanup)
//  4. [report] / [chaindot] - durable output (JSON report, Graphviz
//     provenance graphs)
//  5. [cache] / [config] / [errors] / [observability] - supporting
//     infrastructure
//
// # Architecture
//
// The typical data flow through a trace run:
//
//	mvn dependency:tree / help:effective-pom
//	         ↓
//	    [treeparse] + [pom] (parse text into records)
//	         ↓
//	    [analysis] + [chain] (merge passes, rebuild ancestry)
//	         ↓
//	    [mirror] (copy artifacts, collect outcomes)
//	         ↓
//	    [report] + [chaindot] (JSON report, DOT/SVG graphs)
package pkg
