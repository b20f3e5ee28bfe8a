// Package shipper publishes a pipeline Result as six metric events under a
// fixed namespace:
//
//	atm{month="1"}, atm{month="2"}
//	iv{month="1",put_call="put"}, iv{month="1",put_call="call"}
//	iv{month="2",put_call="put"}, iv{month="2",put_call="call"}
//
// The batch is handed to a Sink in one call. Sinks:
//
//   - pushgateway: PUT {endpoint}/metrics/job/{namespace} with the Prometheus
//     text exposition (client_model + expfmt). Works against a Prometheus
//     Pushgateway or the bundled server.
//   - otlp: one OTLP/HTTP export of gauge points, recorded through a meter
//     named after the namespace and collected with a manual reader.
//   - log: writes the events to the logger only.
//
// Any sink failure surfaces as types.ErrPublishFailed. Nothing is buffered or
// retried; the next scheduled run publishes fresh values.
package shipper
