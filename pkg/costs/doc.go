// Package costs defines the canonical per-service cost model shared by the
// ingestion, aggregation, budget and export packages.
//
// # Overview
//
// A ServiceCost is one row per distinct service for a reporting window. It
// carries the normalized service identifier used for budget matching, the
// original display name, the accumulated total and three breakdowns:
//
//   - Regions: per-region cost, sorted descending by cost
//   - Tags: per-tag cost, sorted descending by cost
//   - DailyCosts: per-day cost, sorted ascending by ISO date
//
// ServiceCost values are built fresh for every ingestion call and are
// treated as immutable once aggregation has finished.
//
// # Service identifiers
//
// NormalizeService lowercases a service name and strips every character that
// is not a letter or digit:
//
//	costs.NormalizeService("Amazon Elastic Compute Cloud - Compute")
//	// "amazonelasticcomputecloudcompute"
//
// The function is idempotent.
//
// # Regions
//
// ValidRegion accepts AWS-style region codes ("us-east-1", "us-gov-west-1",
// "cn-north-1") and rejects placeholder tokens such as "global" or "n/a".
// IsGlobalService reports services for which regional attribution is not
// meaningful (CDN, DNS, IAM, billing, support tiers).
package costs
