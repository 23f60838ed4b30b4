// Package hydrotel implements a query service over Hydrotel telemetry
// databases.
//
// # Architecture
//
// The service is structured into several key packages:
//   - hydrotel: site reconciliation, measurement type resolution,
//     time series aggregation and measurement type provisioning
//   - database: generic tabular store over Postgres and MySQL
//   - resample: bucketing, aggregation rules and rounding
//   - grpc: gRPC service, interceptors and health checking
//   - api: REST endpoints served with gin
//   - config: YAML and environment configuration
//   - scheduler: periodic store health probe
//   - models: Shared data structures
//
// Key Features
//
//   - External site ids:
//     Sites are addressed by their external id. Well numbers recorded on
//     objects win over numeric site codes.
//
//   - Time Series Operations:
//     Samples are resampled into hour or day buckets (with a multiplier)
//     using a per measurement type rule (sum, mean, min, max). Buckets
//     with too few samples are dropped and values are rounded.
//
//   - Provisioning:
//     A new measurement type is created on a site by cloning an existing
//     object and point.
//
// Example Usage
//
//	client := server.NewHydrotelClient(conn)
//	req, _ := structpb.NewStruct(map[string]any{
//	    "mtypes": []any{"flow", "rainfall"},
//	    "sites":  "69607",
//	    "from":   "P30D",
//	    "bucket": "D",
//	})
//	resp, err := client.FetchTimeSeries(ctx, req)
//
// For more information about specific packages, see their respective
// documentation.
package hydrotel
