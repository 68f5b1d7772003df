// Package pipeline executes the gateway's routes.
//
// A Dispatcher owns a fixed set of routes, each a backend request builder
// paired with a codec.Decoder:
//
//   - personData: GET {base}/person_data/{id}, projected by codec/person
//   - soapPersonData: POST {base}/soap/PersonService, extracted by codec/soap
//   - jsonTransform: GET of a source URL, transformed by codec/post
//
// Every execution runs inside one correlation scope, so it logs exactly one
// REQUEST_START, REQUEST_END and REQUEST_SUMMARY line no matter how it ends.
// The RouteTable records which routes an operator has stopped; a stopped
// route fails fast with a route_stopped error before any backend I/O.
package pipeline
