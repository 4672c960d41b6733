// Saturn is a cloud cost ledger: it ingests provider and CSV cost data,
// aggregates it per service, evaluates budgets and serves shareable
// snapshots and exports.
//
// Usage:
//
//	# Start the API server with default configuration
//	saturn run
//
//	# Start with a custom configuration file
//	saturn run --config /path/to/saturn.yaml
//
//	# Summarize a CSV cost export with a daily chart
//	saturn ingest costs.csv --chart
//
//	# Evaluate a CSV export against an account's budgets
//	saturn ingest costs.csv --account acme
//
//	# Export a CSV cost export as detailed CSV
//	saturn export costs.csv --format csv-detailed
//
//	# Show version information
//	saturn version
package main

func main() {
	Execute()
}
