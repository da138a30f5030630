// Package suss eases the creation of collections of singleton services
// namespaced to a single base directory, starting services on demand and
// using Unix-domain sockets as the communication mechanism. When a service is
// already running, callers are connected to its existing socket rather than a
// new instance being started.
//
// The client side lives in the service package: define a service with
// service.CommandService (or implement service.Service directly), then use
// service.Connect, or bind the context once with service.Reify and
// service.Bundle. The server side lives in the server package: server.Listen
// binds the service's named socket and server.Run hosts it, handling the
// liveness handshake with the activating parent and removing the socket file
// when hosting ends.
//
// Activation avoids both polling and PID-reuse races: the activating client
// binds a one-shot rendezvous socket at an unpredictable temp path, hands the
// path to the starting process, and treats a single inbound connection on it
// as proof that the service's named socket is bound. Processes started this
// way are deliberately left untracked so services persist beyond the client
// that happened to start them.
package suss
