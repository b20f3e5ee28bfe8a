// Package config loads and watches the agent configuration file (agent.yaml).
//
// Top-level types:
//   - Config{Agent}: full config tree parsed from YAML
//   - SourceConfig: index_url, user_agent, timeout, tls
//   - TableConfig: encoding (WHATWG label), skip_rows
//   - ExtractConfig: future_prefix, index_name, strike_increment,
//     second_month_label (first|second)
//   - PublisherConfig: namespace, sink (pushgateway|otlp|log), endpoint,
//     timeout, auth; AuthConfig.Key() resolves from environment variables
//   - ScheduleConfig: interval, weekdays_only, timezone
//
// Load(path) reads the YAML file, applies defaults (JPX index page,
// shift_jis, 2 skipped rows, FUT_225M_, 250 increment, 6h interval), then
// validates required fields and enums. Defaults() is usable on its own when
// the agent runs without a file.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config.
package config
