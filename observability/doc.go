// Package observability wires OpenTelemetry metrics for ranchkit.
//
// InitMeter installs a meter provider that exports over OTLP/HTTP when an
// endpoint is configured. Metrics holds the instruments the request
// executor and the live connection manager record into; a nil *Metrics is
// valid and records nothing.
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("ranchctl"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("ranchkit"))
//	exec, err := fetch.New[[]Ranch](cfg, fetch.WithMetrics(metrics))
package observability
