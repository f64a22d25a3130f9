// Package instrumentation provides OpenTelemetry metrics, tracing and the
// tool audit log for the didagoals MCP server.
//
// # Metrics
//
// Server:
//   - http_requests_total, http_request_duration_seconds: by method, normalized path and status
//
// Upstream (task host, progress store, event bus):
//   - upstream_api_operations_total, upstream_api_operation_duration_seconds:
//     by service (dida, google_tasks, progress, events), operation and status
//   - oauth_token_refresh_total: host token refreshes by service and result
//
// Goals:
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: by tool and status
//   - goals_skipped_total: goal tasks whose metadata could not be decoded
//   - goal_events_published_total: lifecycle events by type and status
//
// # Tracing
//
// Spans are created for tool invocations (tool.<name>) and upstream calls
// (<service>.<operation>).
//
// # Configuration
//
// Instrumentation is configured from the environment:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: didagoals)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_ARGUMENTS
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	start := time.Now()
//	items, err := client.ListItems(ctx, projectID)
//	provider.Metrics().RecordUpstreamOperation(ctx, instrumentation.ServiceDida,
//		instrumentation.OperationList, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
