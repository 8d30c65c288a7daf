// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// HTTP keys are shared by the server middleware and the ARGUS TV client.
const (
	HTTPMethodKey        = attribute.Key("http.method")
	HTTPRouteKey         = attribute.Key("http.route")
	HTTPURLKey           = attribute.Key("http.url")
	HTTPStatusCodeKey    = attribute.Key("http.status_code")
	HTTPResponseBytesKey = attribute.Key("http.response_content_length")
	RequestIDKey         = attribute.Key("http.request_id")
)

const (
	ArgusCommandKey = attribute.Key("argustv.command")

	LiveChannelKey   = attribute.Key("live.channel_id")
	LiveChannelName  = attribute.Key("live.channel_name")
	LiveTimeshiftKey = attribute.Key("live.timeshift_file")
	LiveResultKey    = attribute.Key("live.result")
)

// HTTPAttributes describes one request/response pair.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		HTTPMethodKey.String(method),
		HTTPRouteKey.String(route),
		HTTPURLKey.String(url),
		HTTPStatusCodeKey.Int(statusCode),
	}
}

// LiveStreamAttributes describes a tune request. Empty values are omitted.
func LiveStreamAttributes(channelID, channelName, timeshiftFile string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, kv := range []attribute.KeyValue{
		LiveChannelKey.String(channelID),
		LiveChannelName.String(channelName),
		LiveTimeshiftKey.String(timeshiftFile),
	} {
		if kv.Value.AsString() != "" {
			attrs = append(attrs, kv)
		}
	}
	return attrs
}
