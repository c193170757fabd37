// Command agentd runs an agent that accepts handshakes and answers
// messages over HTTP.
//
// It serves POST /v1/a2a:sendMessage, GET /v1/did/{did}, POST /v1/did and
// GET /healthz on --listen, and Prometheus metrics on --metrics-listen when
// set. Expired sessions and replay cache entries are swept every
// --sweep-interval. The identity is created beforehand with agentlink init
// using the same --home and passphrase.
package main
